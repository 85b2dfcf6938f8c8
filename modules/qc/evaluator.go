package qc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/fallback"
	"poppiconni-pipeline-server/modules/common/model"
	"poppiconni-pipeline-server/modules/provider"
)

// Evaluator - phase 3 QC 평가
type Evaluator struct {
	vision    provider.VisionEvaluator
	threshold float64
}

// NewEvaluator - Evaluator 생성
func NewEvaluator(vision provider.VisionEvaluator, threshold float64) *Evaluator {
	return &Evaluator{vision: vision, threshold: threshold}
}

// Threshold - 현재 accept threshold
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate - 후보 이미지를 루브릭으로 평가하고 QCReport 반환
func (e *Evaluator) Evaluate(ctx context.Context, imageData []byte) (*model.QCReport, error) {
	log.Printf("🔍 [QC] Evaluating candidate (%d bytes)", len(imageData))

	raw, err := e.vision.Evaluate(ctx, imageData, RubricPrompt)
	if err != nil {
		return nil, errs.ClassifyProviderError(provider.PhaseQCEvaluation, err)
	}

	report, err := ParseReport(raw)
	if err != nil {
		// 파싱 불가능한 응답은 영구 거절 취급 (모델이 형식을 지키지 못함)
		return nil, &errs.ProviderRejectedError{
			Phase:  provider.PhaseQCEvaluation,
			Reason: fmt.Sprintf("unparseable QC response: %v", err),
		}
	}

	log.Printf("✅ [QC] Evaluation done (score: %.2f, all passed: %v)", report.ConfidenceScore, report.Checks.AllPassed())
	return report, nil
}

// Accept - orchestrator가 쓰는 수락 규칙: score >= threshold AND 모든 체크 통과
func (e *Evaluator) Accept(report *model.QCReport) bool {
	return report.ConfidenceScore >= e.threshold && report.Checks.AllPassed()
}

// ParseReport - 비전 모델의 느슨한 JSON 응답을 QCReport로 변환
// 마크다운 펜스 제거 + 타입 불일치 허용 (fallback 헬퍼 사용)
func ParseReport(raw string) (*model.QCReport, error) {
	cleaned := stripMarkdownFences(raw)

	var loose map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &loose); err != nil {
		return nil, fmt.Errorf("invalid QC JSON: %w", err)
	}

	report := &model.QCReport{
		ConfidenceScore: fallback.ClampUnit(fallback.SafeFloat(loose["confidence_score"], 0)),
		Issues:          fallback.SafeStringSlice(loose["issues"]),
	}

	checks, ok := loose["checks"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("QC JSON missing checks object")
	}
	report.Checks = model.QCChecks{
		BrandMarkPresent: fallback.SafeBool(checks["brand_mark_present"], false),
		BrandTextLegible: fallback.SafeBool(checks["brand_text_legible"], false),
		LineArtStyle:     fallback.SafeBool(checks["line_art_style"], false),
		Colorability:     fallback.SafeBool(checks["colorability"], false),
		ContentSafe:      fallback.SafeBool(checks["content_safe"], false),
	}

	return report, nil
}

// stripMarkdownFences - ```json ... ``` 래핑 제거
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
