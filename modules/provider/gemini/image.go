package gemini

import (
	"log"

	"context"

	"google.golang.org/genai"
	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/provider"
)

// printAspectRatio - 컬러링북 인쇄 규격 (A4 세로)
const printAspectRatio = "3:4"

// Generate - phase 2 이미지 생성 호출
// conditioningImage가 있으면 스타일 참조로 함께 전달
func (c *Client) Generate(ctx context.Context, prompt string, conditioningImage []byte) ([]byte, error) {
	log.Printf("🎨 Calling Gemini image model (%s) with prompt length: %d, conditioning: %v",
		c.imageModel, len(prompt), conditioningImage != nil)

	var parts []*genai.Part

	// 순서: 스타일 참조 → 프롬프트
	if conditioningImage != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: "image/png",
				Data:     conditioningImage,
			},
		})
		log.Printf("📎 Added style reference image (%d bytes)", len(conditioningImage))
	}

	parts = append(parts, genai.NewPartFromText(prompt))

	content := &genai.Content{
		Parts: parts,
	}

	log.Printf("📤 Sending request to Gemini API with %d parts...", len(parts))
	result, err := generateWithRetry(
		ctx,
		c.genaiClient,
		c.imageModel,
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{
				AspectRatio: printAspectRatio,
			},
		},
	)
	if err != nil {
		return nil, errs.ClassifyProviderError(provider.PhaseImageGeneration, err)
	}

	if reason := blockReason(result); reason != "" {
		return nil, &errs.ProviderRejectedError{Phase: provider.PhaseImageGeneration, Reason: reason}
	}

	// 응답 처리 (이미지는 InlineData로 반환됨)
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				log.Printf("✅ Received image from Gemini: %d bytes", len(part.InlineData.Data))
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, &errs.ProviderRejectedError{
		Phase:  provider.PhaseImageGeneration,
		Reason: "no image data in response",
	}
}
