package gemini

import (
	"context"
	"log"
	"time"

	"google.golang.org/genai"
	"poppiconni-pipeline-server/modules/common/errs"
)

// generateWithRetry - 429 등 일시 오류 시 같은 호출을 재시도하는 헬퍼 함수
// 짧은 스파이크만 여기서 흡수, 계속 실패하면 상위(async_retry)로 넘김
// 최대 3번 재시도
func generateWithRetry(
	ctx context.Context,
	client *genai.Client,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {

	const maxAttempts = 3
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("   🔄 Retry attempt %d/%d for model %s", attempt, maxAttempts, model)
		}

		result, err := client.Models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			return result, nil
		}

		lastErr = err

		// 일시 오류가 아니면 바로 반환 (재시도 안 함)
		if !errs.IsTransientProviderError(err) {
			log.Printf("❌ [Gemini Retry] Non-transient error on attempt %d: %v", attempt, err)
			return nil, err
		}

		log.Printf("⚠️  [Gemini Retry] Transient error on attempt %d/%d: %v", attempt, maxAttempts, err)

		// 마지막 시도가 아니면 2초 대기 후 재시도
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}

	return nil, lastErr
}
