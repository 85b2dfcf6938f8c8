package qc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
)

type stubVision struct {
	reply string
	err   error
}

func (s *stubVision) Evaluate(ctx context.Context, imageData []byte, rubricPrompt string) (string, error) {
	return s.reply, s.err
}

const passingJSON = `{
	"confidence_score": 0.85,
	"checks": {
		"brand_mark_present": true,
		"brand_text_legible": true,
		"line_art_style": true,
		"colorability": true,
		"content_safe": true
	},
	"issues": []
}`

func TestParseReportPlainJSON(t *testing.T) {
	report, err := ParseReport(passingJSON)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, report.ConfidenceScore, 1e-9)
	assert.True(t, report.Checks.AllPassed())
	assert.Empty(t, report.Issues)
}

func TestParseReportMarkdownFenced(t *testing.T) {
	report, err := ParseReport("```json\n" + passingJSON + "\n```")
	require.NoError(t, err)
	assert.True(t, report.Checks.AllPassed())
}

func TestParseReportLooseTypes(t *testing.T) {
	// 모델이 점수를 문자열로, 체크를 "pass"/"fail"로 돌려주는 경우
	raw := `{
		"confidence_score": "0.6",
		"checks": {
			"brand_mark_present": "pass",
			"brand_text_legible": "fail",
			"line_art_style": true,
			"colorability": true,
			"content_safe": true
		},
		"issues": ["brand text is partially covered by the hose"]
	}`

	report, err := ParseReport(raw)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, report.ConfidenceScore, 1e-9)
	assert.True(t, report.Checks.BrandMarkPresent)
	assert.False(t, report.Checks.BrandTextLegible)
	assert.False(t, report.Checks.AllPassed())
	assert.Len(t, report.Issues, 1)
}

func TestParseReportClampsScore(t *testing.T) {
	raw := `{"confidence_score": 1.4, "checks": {"brand_mark_present": true, "brand_text_legible": true, "line_art_style": true, "colorability": true, "content_safe": true}}`

	report, err := ParseReport(raw)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.ConfidenceScore)
}

func TestParseReportMissingChecks(t *testing.T) {
	_, err := ParseReport(`{"confidence_score": 0.9}`)
	assert.Error(t, err)
}

func TestAcceptRule(t *testing.T) {
	e := NewEvaluator(&stubVision{}, 0.7)

	allPass := model.QCChecks{BrandMarkPresent: true, BrandTextLegible: true, LineArtStyle: true, Colorability: true, ContentSafe: true}

	assert.True(t, e.Accept(&model.QCReport{ConfidenceScore: 0.7, Checks: allPass}))
	assert.False(t, e.Accept(&model.QCReport{ConfidenceScore: 0.69, Checks: allPass}))

	oneFail := allPass
	oneFail.Colorability = false
	assert.False(t, e.Accept(&model.QCReport{ConfidenceScore: 0.99, Checks: oneFail}))
}

func TestEvaluateClassifiesProviderErrors(t *testing.T) {
	e := NewEvaluator(&stubVision{err: errors.New("deadline exceeded")}, 0.7)

	_, err := e.Evaluate(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))
}

func TestEvaluateUnparseableIsPermanent(t *testing.T) {
	e := NewEvaluator(&stubVision{reply: "I think the image looks great!"}, 0.7)

	_, err := e.Evaluate(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.True(t, errs.IsRejected(err))
}
