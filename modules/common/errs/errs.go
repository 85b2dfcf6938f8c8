package errs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ValidationError - 요청 필드 검증 실패 (phase 시작 전 동기 거절)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s (%s)", e.Message, e.Field)
}

// QuotaExceededError - 스타일 라이브러리 정원 초과
type QuotaExceededError struct {
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("style library quota exceeded (limit: %d)", e.Limit)
}

// NotFoundError - 스타일/테마/generation id 미존재
type NotFoundError struct {
	Kind string // "style", "theme", "generation"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ProviderError - 일시적 공급자 오류 (timeout, 429, 5xx) → async_retry 대상
type ProviderError struct {
	Phase string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error during %s: %v", e.Phase, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ProviderRejectedError - 영구 공급자 거절 (content policy 등) → failed 확정
type ProviderRejectedError struct {
	Phase  string
	Reason string
}

func (e *ProviderRejectedError) Error() string {
	return fmt.Sprintf("provider rejected %s: %s", e.Phase, e.Reason)
}

// ProcessingError - phase 4 결정적 처리 실패 → failed 확정, 재시도 없음
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("post-processing failed: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// IsTransient - async_retry 대상 오류인지 확인
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsRejected - 영구 거절 오류인지 확인
func IsRejected(err error) bool {
	var pr *ProviderRejectedError
	return errors.As(err, &pr)
}

// IsNotFound - NotFoundError 여부
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsQuotaExceeded - QuotaExceededError 여부
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// ClassifyProviderError - 원시 공급자 오류를 transient/permanent로 분류
// 이미 분류된 오류는 그대로 통과
func ClassifyProviderError(phase string, err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	var pr *ProviderRejectedError
	if errors.As(err, &pe) || errors.As(err, &pr) {
		return err
	}

	if IsTransientProviderError(err) {
		return &ProviderError{Phase: phase, Err: err}
	}
	return &ProviderRejectedError{Phase: phase, Reason: err.Error()}
}

// IsTransientProviderError - 원시 오류의 일시성 판단
// Gemini API 에러 패턴 체크 (429/timeout/5xx)
func IsTransientProviderError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	transientMarkers := []string{
		"429",
		"rate limit",
		"quota",
		"resource exhausted",
		"resource_exhausted",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"500",
		"502",
		"503",
		"504",
		"overloaded",
		"connection reset",
		"connection refused",
	}
	for _, marker := range transientMarkers {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
