package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/provider"
)

// Complete - phase 1 프롬프트 최적화 호출
func (c *Client) Complete(ctx context.Context, promptContext string) (string, error) {
	log.Printf("✍️  Calling Gemini text model (%s) with context length: %d", c.textModel, len(promptContext))

	content := &genai.Content{
		Parts: []*genai.Part{
			genai.NewPartFromText(promptContext),
		},
	}

	result, err := generateWithRetry(ctx, c.genaiClient, c.textModel, []*genai.Content{content}, nil)
	if err != nil {
		return "", errs.ClassifyProviderError(provider.PhasePromptSynthesis, err)
	}

	if reason := blockReason(result); reason != "" {
		return "", &errs.ProviderRejectedError{Phase: provider.PhasePromptSynthesis, Reason: reason}
	}

	text := extractText(result)
	if text == "" {
		return "", &errs.ProviderRejectedError{
			Phase:  provider.PhasePromptSynthesis,
			Reason: "no text in model response",
		}
	}

	log.Printf("✅ Received optimized prompt from Gemini: %d chars", len(text))
	return text, nil
}

// extractText - 응답 candidate들에서 텍스트 파트 수집
func extractText(result *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// blockReason - safety/policy 차단 여부 확인, 차단 사유 문자열 반환
func blockReason(result *genai.GenerateContentResponse) string {
	if result == nil {
		return "empty response"
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return fmt.Sprintf("prompt blocked: %s", result.PromptFeedback.BlockReason)
	}
	for _, candidate := range result.Candidates {
		reason := string(candidate.FinishReason)
		if strings.Contains(reason, "SAFETY") || strings.Contains(reason, "PROHIBITED") || strings.Contains(reason, "BLOCKLIST") {
			return fmt.Sprintf("candidate blocked: %s", reason)
		}
	}
	return ""
}
