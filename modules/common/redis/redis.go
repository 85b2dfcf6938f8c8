package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"poppiconni-pipeline-server/modules/common/config"
)

const (
	// QueueKey - 대기 중인 generation id 큐 (LPUSH/BRPOP)
	QueueKey = "generations:queue"
	// RetryZSetKey - async_retry 지연 재투입용 sorted set (score = 재투입 가능 unix time)
	RetryZSetKey = "generations:retry"
)

// Connect - Redis 연결 생성
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	// TLS 설정 (InsecureSkipVerify 추가)
	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // Render.com Redis용
		}
	}

	// Redis 클라이언트 생성
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,                // 기본 DB
		DialTimeout:  10 * time.Second, // 타임아웃 늘림
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// 연결 테스트
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("🔍 Testing Redis connection...")
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	return rdb
}

// Enqueue - generation id를 작업 큐에 투입, 큐 길이 반환
func Enqueue(ctx context.Context, rdb *redis.Client, generationID string) (int64, error) {
	if _, err := rdb.LPush(ctx, QueueKey, generationID).Result(); err != nil {
		return 0, fmt.Errorf("failed to enqueue generation: %w", err)
	}
	return rdb.LLen(ctx, QueueKey).Val(), nil
}

// ScheduleRetry - async_retry 지연 재투입 예약 (busy-wait 아님, ZADD 기반)
func ScheduleRetry(ctx context.Context, rdb *redis.Client, generationID string, eligibleAt time.Time) error {
	err := rdb.ZAdd(ctx, RetryZSetKey, redis.Z{
		Score:  float64(eligibleAt.Unix()),
		Member: generationID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	log.Printf("⏰ Scheduled async retry for %s at %s", generationID, eligibleAt.Format(time.RFC3339))
	return nil
}

// PopDueRetries - 재투입 시각이 지난 generation id들을 꺼내서 반환
func PopDueRetries(ctx context.Context, rdb *redis.Client, now time.Time) ([]string, error) {
	ids, err := rdb.ZRangeByScore(ctx, RetryZSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read retry set: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	// 꺼낸 멤버는 제거 (중복 재투입 방지)
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := rdb.ZRem(ctx, RetryZSetKey, members...).Err(); err != nil {
		return nil, fmt.Errorf("failed to remove due retries: %w", err)
	}

	return ids, nil
}

// cancelKey - 취소 플래그 키
func cancelKey(generationID string) string {
	return "generation:cancel:" + generationID
}

// SetCancelled - 취소 플래그 설정 (24시간 TTL)
func SetCancelled(rdb *redis.Client, generationID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rdb.Set(ctx, cancelKey(generationID), "1", 24*time.Hour).Err()
}

// IsCancelled - 취소 플래그 확인
// Redis 오류 시 false 반환 (취소 확인 실패로 파이프라인을 멈추지 않음)
func IsCancelled(rdb *redis.Client, generationID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	val, err := rdb.Get(ctx, cancelKey(generationID)).Result()
	if err != nil {
		return false
	}
	return val == "1"
}
