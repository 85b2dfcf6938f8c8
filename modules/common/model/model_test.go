package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalStates(t *testing.T) {
	terminal := []GenerationStatus{StatusCompleted, StatusLowConfidence, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	active := []GenerationStatus{StatusPending, StatusPhase1Prompt, StatusPhase2Generation, StatusPhase3QC, StatusPhase4Postprod, StatusAsyncRetry}
	for _, s := range active {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestHappyPathTransitions(t *testing.T) {
	path := []GenerationStatus{
		StatusPending,
		StatusPhase1Prompt,
		StatusPhase2Generation,
		StatusPhase3QC,
		StatusPhase4Postprod,
		StatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, path[i].CanTransitionTo(path[i+1]), "%s → %s", path[i], path[i+1])
	}
}

func TestQCRetryAndTerminalTransitions(t *testing.T) {
	// QC 거절 → phase 2 재생성
	assert.True(t, StatusPhase3QC.CanTransitionTo(StatusPhase2Generation))
	// 예산 소진 → low_confidence
	assert.True(t, StatusPhase3QC.CanTransitionTo(StatusLowConfidence))
	// 일시 오류 → async_retry → 같은 phase 재진입
	assert.True(t, StatusPhase2Generation.CanTransitionTo(StatusAsyncRetry))
	assert.True(t, StatusAsyncRetry.CanTransitionTo(StatusPhase2Generation))
	// 취소는 phase 2 전까지만
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusPhase1Prompt.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPhase2Generation.CanTransitionTo(StatusCancelled))
}

func TestIllegalTransitions(t *testing.T) {
	// phase 건너뛰기 금지
	assert.False(t, StatusPending.CanTransitionTo(StatusPhase2Generation))
	assert.False(t, StatusPhase1Prompt.CanTransitionTo(StatusPhase3QC))
	assert.False(t, StatusPhase2Generation.CanTransitionTo(StatusCompleted))
	// 종료 상태에서의 모든 전이 금지
	for _, from := range []GenerationStatus{StatusCompleted, StatusLowConfidence, StatusFailed, StatusCancelled} {
		for _, to := range []GenerationStatus{StatusPending, StatusPhase1Prompt, StatusPhase2Generation, StatusPhase3QC, StatusPhase4Postprod, StatusCompleted, StatusFailed, StatusAsyncRetry} {
			assert.False(t, from.CanTransitionTo(to), "%s → %s must be illegal", from, to)
		}
	}
}

func TestQCChecksAllPassed(t *testing.T) {
	all := QCChecks{BrandMarkPresent: true, BrandTextLegible: true, LineArtStyle: true, Colorability: true, ContentSafe: true}
	assert.True(t, all.AllPassed())

	one := all
	one.ContentSafe = false
	assert.False(t, one.AllPassed())

	assert.False(t, QCChecks{}.AllPassed())
}

func TestProjectionExposesPublicFieldsOnly(t *testing.T) {
	prompt := "optimized"
	reason := "provider rejected"
	record := GenerationRecord{
		GenerationID:    "gen-1",
		Status:          StatusFailed,
		RetryCount:      2,
		OptimizedPrompt: &prompt,
		FailureReason:   &reason,
	}

	p := record.Projection()
	assert.Equal(t, "gen-1", p.GenerationID)
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, 2, p.RetryCount)
	assert.Equal(t, &prompt, p.OptimizedPrompt)
	assert.Equal(t, &reason, p.FailureReason)
}
