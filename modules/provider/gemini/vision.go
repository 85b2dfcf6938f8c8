package gemini

import (
	"context"
	"log"

	"google.golang.org/genai"
	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/provider"
)

// Evaluate - phase 3 비전 평가 호출
// 후보 이미지와 루브릭 프롬프트를 보내고 모델의 원시 JSON 텍스트를 반환
func (c *Client) Evaluate(ctx context.Context, imageData []byte, rubricPrompt string) (string, error) {
	log.Printf("🔍 Calling Gemini QC model (%s) on candidate image (%d bytes)", c.qcModel, len(imageData))

	content := &genai.Content{
		Parts: []*genai.Part{
			{
				InlineData: &genai.Blob{
					MIMEType: "image/png",
					Data:     imageData,
				},
			},
			genai.NewPartFromText(rubricPrompt),
		},
	}

	result, err := generateWithRetry(ctx, c.genaiClient, c.qcModel, []*genai.Content{content}, nil)
	if err != nil {
		return "", errs.ClassifyProviderError(provider.PhaseQCEvaluation, err)
	}

	if reason := blockReason(result); reason != "" {
		return "", &errs.ProviderRejectedError{Phase: provider.PhaseQCEvaluation, Reason: reason}
	}

	text := extractText(result)
	if text == "" {
		return "", &errs.ProviderRejectedError{
			Phase:  provider.PhaseQCEvaluation,
			Reason: "no evaluation text in model response",
		}
	}

	log.Printf("✅ Received QC evaluation from Gemini: %d chars", len(text))
	return text, nil
}
