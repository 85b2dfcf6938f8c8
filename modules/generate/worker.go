package generate

import (
	"context"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisutil "poppiconni-pipeline-server/modules/common/redis"
)

const retryPollInterval = 5 * time.Second

// StartWorker - Redis Queue Worker 시작 (blocking, goroutine으로 호출)
func StartWorker(rdb *goredis.Client, orch *Orchestrator) {
	log.Println("🔄 Generation worker starting...")
	log.Printf("👀 Watching queue: %s", redisutil.QueueKey)

	ctx := context.Background()

	for {
		result, err := rdb.BRPop(ctx, 0, redisutil.QueueKey).Result()
		if err != nil {
			log.Printf("❌ Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0]은 queue 이름, result[1]이 generation_id
		generationID := result[1]
		log.Printf("🎯 Received generation: %s", generationID)

		go runGeneration(ctx, orch, generationID)
	}
}

// runGeneration - 한 건 처리, 오류는 레코드에 기록되므로 로그만 남김
func runGeneration(ctx context.Context, orch *Orchestrator, generationID string) {
	if err := orch.Run(ctx, generationID); err != nil {
		log.Printf("❌ Generation %s run error: %v", generationID, err)
	}
}

// StartRetryPoller - async_retry 만기 레코드를 큐로 되돌리는 폴러 (blocking)
func StartRetryPoller(rdb *goredis.Client) {
	log.Printf("⏰ Async retry poller starting (interval: %s)", retryPollInterval)

	ctx := context.Background()
	ticker := time.NewTicker(retryPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		due, err := redisutil.PopDueRetries(ctx, rdb, time.Now())
		if err != nil {
			log.Printf("❌ Retry poll error: %v", err)
			continue
		}

		for _, generationID := range due {
			if _, err := redisutil.Enqueue(ctx, rdb, generationID); err != nil {
				log.Printf("❌ Failed to requeue %s: %v", generationID, err)
				continue
			}
			log.Printf("🔁 Requeued %s for retry", generationID)
		}
	}
}
