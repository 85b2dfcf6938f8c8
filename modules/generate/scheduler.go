package generate

import (
	"context"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisutil "poppiconni-pipeline-server/modules/common/redis"
)

// Scheduler - async_retry 지연 재진입 계약
type Scheduler interface {
	Schedule(ctx context.Context, generationID string, eligibleAt time.Time) error
}

// RedisScheduler - Redis sorted set 기반 지연 재진입
type RedisScheduler struct {
	rdb *goredis.Client
}

// NewRedisScheduler - RedisScheduler 생성
func NewRedisScheduler(rdb *goredis.Client) *RedisScheduler {
	return &RedisScheduler{rdb: rdb}
}

func (s *RedisScheduler) Schedule(ctx context.Context, generationID string, eligibleAt time.Time) error {
	if err := redisutil.ScheduleRetry(ctx, s.rdb, generationID, eligibleAt); err != nil {
		return err
	}
	log.Printf("⏰ [Scheduler] %s eligible at %s", generationID, eligibleAt.Format(time.RFC3339))
	return nil
}

// backoffDelay - 같은 레코드의 연속 일시 오류에 대한 지수 백오프
// attempts는 1부터 시작 (base, 2*base, 4*base, ...)
func backoffDelay(base time.Duration, attempts int) time.Duration {
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
	}
	return delay
}
