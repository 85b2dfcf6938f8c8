package provider

import "context"

// Phase 라벨 - 오류 분류 시 어느 단계에서 났는지 표시
const (
	PhasePromptSynthesis = "prompt_synthesis"
	PhaseImageGeneration = "image_generation"
	PhaseQCEvaluation    = "qc_evaluation"
)

// TextCompleter - phase 1 언어 모델 계약
// 오류는 errs.ProviderError(일시) 또는 errs.ProviderRejectedError(영구)로 분류되어 반환
type TextCompleter interface {
	Complete(ctx context.Context, promptContext string) (string, error)
}

// ImageGenerator - phase 2 이미지 모델 계약
// conditioningImage는 nil 허용 (스타일 참조 없는 생성)
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, conditioningImage []byte) ([]byte, error)
}

// VisionEvaluator - phase 3 비전 모델 계약
// 루브릭 프롬프트를 받아 모델의 원시 JSON 텍스트를 반환 (파싱은 qc 모듈 담당)
type VisionEvaluator interface {
	Evaluate(ctx context.Context, imageData []byte, rubricPrompt string) (string, error)
}
