package promptsynth

import (
	"context"
	"fmt"
	"log"
	"strings"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
	"poppiconni-pipeline-server/modules/provider"
)

// Synthesizer - phase 1 프롬프트 최적화
type Synthesizer struct {
	completer provider.TextCompleter
}

// NewSynthesizer - Synthesizer 생성
func NewSynthesizer(completer provider.TextCompleter) *Synthesizer {
	return &Synthesizer{completer: completer}
}

// Synthesize - 사용자 요청 + 테마 + 스타일을 하나의 최적화된 생성 프롬프트로 변환
// 언어 모델 호출 외 부수효과 없음
func (s *Synthesizer) Synthesize(ctx context.Context, requestText string, themeName *string, styleEntry *model.StyleLibraryEntry) (string, error) {
	promptContext := BuildContext(requestText, themeName, styleEntry)

	log.Printf("📝 [PromptSynth] Optimizing prompt (request: %.60s...)", requestText)

	optimized, err := s.completer.Complete(ctx, promptContext)
	if err != nil {
		return "", errs.ClassifyProviderError(provider.PhasePromptSynthesis, err)
	}

	optimized = strings.TrimSpace(optimized)
	if optimized == "" {
		return "", &errs.ProviderRejectedError{
			Phase:  provider.PhasePromptSynthesis,
			Reason: "language model returned an empty prompt",
		}
	}

	log.Printf("✅ [PromptSynth] Optimized prompt ready (%d chars)", len(optimized))
	return optimized, nil
}

// BuildContext - 언어 모델에 넘기는 구조화된 컨텍스트 조립
// 순서: 역할 지시 → 사용자 장면 묘사 → 테마 → 스타일 → 브랜드 제약
func BuildContext(requestText string, themeName *string, styleEntry *model.StyleLibraryEntry) string {
	var b strings.Builder

	b.WriteString("[ROLE]\n")
	b.WriteString("You write a single optimized image-generation prompt for a children's coloring book page.\n")
	b.WriteString("Return ONLY the final prompt text - no explanation, no markdown.\n\n")

	b.WriteString("[SCENE REQUEST]\n")
	b.WriteString(requestText)
	b.WriteString("\n")

	if themeName != nil && *themeName != "" {
		b.WriteString(fmt.Sprintf("\n[THEME]\nCollection theme: %s. Keep the scene consistent with this theme.\n", *themeName))
	}

	if styleEntry != nil {
		b.WriteString(fmt.Sprintf("\n[STYLE REFERENCE]\nDrawing style: %s.", styleEntry.StyleName))
		if styleEntry.Description != nil && *styleEntry.Description != "" {
			b.WriteString(" " + *styleEntry.Description + ".")
		}
		b.WriteString("\nA reference image in this style will condition the image model - describe the scene, not the style mechanics.\n")
	}

	b.WriteString("\n")
	b.WriteString(BrandConstraintBlock)

	return b.String()
}
