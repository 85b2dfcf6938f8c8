package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTransientMarkers(t *testing.T) {
	transient := []string{
		"googleapi: Error 429: Resource has been exhausted",
		"rate limit exceeded, retry later",
		"context deadline exceeded",
		"503 Service Unavailable",
		"model is overloaded",
		"read tcp: connection reset by peer",
	}
	for _, msg := range transient {
		err := ClassifyProviderError("image_generation", errors.New(msg))
		assert.True(t, IsTransient(err), "expected transient: %s", msg)
		assert.False(t, IsRejected(err))
	}
}

func TestClassifyPermanentErrors(t *testing.T) {
	permanent := []string{
		"blocked by content policy",
		"invalid argument: prompt too long",
		"model returned no candidates",
	}
	for _, msg := range permanent {
		err := ClassifyProviderError("prompt_synthesis", errors.New(msg))
		assert.True(t, IsRejected(err), "expected permanent: %s", msg)
		assert.False(t, IsTransient(err))
	}
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", context.DeadlineExceeded)
	err := ClassifyProviderError("qc_evaluation", wrapped)
	assert.True(t, IsTransient(err))
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	original := &ProviderRejectedError{Phase: "prompt_synthesis", Reason: "policy"}
	wrapped := fmt.Errorf("wrapped: %w", original)
	err := ClassifyProviderError("image_generation", wrapped)
	assert.Equal(t, wrapped, err)
	assert.True(t, IsRejected(err))
	// phase 재분류 없이 통과
	var pr *ProviderRejectedError
	require.True(t, errors.As(err, &pr))
	assert.Equal(t, "prompt_synthesis", pr.Phase)
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, ClassifyProviderError("image_generation", nil))
}

func TestTypedErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", &NotFoundError{Kind: "style", ID: "s1"})))
	assert.True(t, IsQuotaExceeded(&QuotaExceededError{Limit: 20}))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsQuotaExceeded(nil))
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("socket timeout")
	err := &ProviderError{Phase: "qc_evaluation", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "qc_evaluation")
}
