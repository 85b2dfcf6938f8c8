package promptsynth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
)

type stubCompleter struct {
	reply string
	err   error
	seen  string
}

func (s *stubCompleter) Complete(ctx context.Context, promptContext string) (string, error) {
	s.seen = promptContext
	return s.reply, s.err
}

func TestBuildContextContainsBrandConstraints(t *testing.T) {
	theme := "Mestieri"
	desc := "soft watercolor washes"
	style := &model.StyleLibraryEntry{StyleName: "Acquerello", Description: &desc}

	got := BuildContext("Poppiconni pompiere che salva un gattino", &theme, style)

	assert.Contains(t, got, "Poppiconni pompiere che salva un gattino")
	assert.Contains(t, got, "[THEME]")
	assert.Contains(t, got, "Mestieri")
	assert.Contains(t, got, "[STYLE REFERENCE]")
	assert.Contains(t, got, "Acquerello")
	assert.Contains(t, got, "[COLORING BOOK LINE ART STYLE]")
	assert.Contains(t, got, "[MANDATORY BRAND ELEMENTS]")
	assert.Contains(t, got, "[FORBIDDEN CONTENT]")
	assert.Contains(t, got, "NO violence")
}

func TestBuildContextWithoutOptionalParts(t *testing.T) {
	got := BuildContext("un prato fiorito", nil, nil)

	assert.NotContains(t, got, "[THEME]")
	assert.NotContains(t, got, "[STYLE REFERENCE]")
	assert.Contains(t, got, "[COLORING BOOK LINE ART STYLE]")
}

func TestSynthesizeTrimsModelOutput(t *testing.T) {
	stub := &stubCompleter{reply: "\n  A cheerful line-art scene of Poppiconni.  \n"}
	s := NewSynthesizer(stub)

	got, err := s.Synthesize(context.Background(), "scena", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "A cheerful line-art scene of Poppiconni.", got)
	assert.True(t, strings.Contains(stub.seen, BrandConstraintBlock))
}

func TestSynthesizeEmptyReplyIsPermanent(t *testing.T) {
	s := NewSynthesizer(&stubCompleter{reply: "   "})

	_, err := s.Synthesize(context.Background(), "scena", nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsRejected(err))
}

func TestSynthesizeClassifiesRawErrors(t *testing.T) {
	s := NewSynthesizer(&stubCompleter{err: errors.New("429 resource exhausted")})

	_, err := s.Synthesize(context.Background(), "scena", nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))

	s = NewSynthesizer(&stubCompleter{err: errors.New("content policy violation")})
	_, err = s.Synthesize(context.Background(), "scena", nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsRejected(err))
}
