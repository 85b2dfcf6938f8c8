package vertex

import (
	"context"
	"log"

	"cloud.google.com/go/vertexai/genai"
	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/provider"
)

// Generate - phase 2 이미지 생성 (Vertex AI 백엔드)
// Gemini 백엔드와 동일한 ImageGenerator 계약을 따름
func (c *Client) Generate(ctx context.Context, prompt string, conditioningImage []byte) ([]byte, error) {
	if c == nil || c.genaiClient == nil {
		return nil, &errs.ProviderError{Phase: provider.PhaseImageGeneration, Err: errNoClient}
	}

	log.Printf("🎨 [VertexAI] Generating image (model: %s, conditioning: %v)",
		c.imageModel, conditioningImage != nil)

	model := c.genaiClient.GenerativeModel(c.imageModel)

	var parts []genai.Part
	if conditioningImage != nil {
		parts = append(parts, genai.Blob{
			MIMEType: "image/png",
			Data:     conditioningImage,
		})
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, errs.ClassifyProviderError(provider.PhaseImageGeneration, err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				log.Printf("✅ [VertexAI] Received image: %d bytes", len(blob.Data))
				return blob.Data, nil
			}
		}
	}

	return nil, &errs.ProviderRejectedError{
		Phase:  provider.PhaseImageGeneration,
		Reason: "no image data in response",
	}
}
