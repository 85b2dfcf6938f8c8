package generate

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	redisutil "poppiconni-pipeline-server/modules/common/redis"
)

// Queue - 접수/취소 큐 계약 (프로덕션은 Redis, 테스트는 인메모리)
type Queue interface {
	Enqueue(ctx context.Context, generationID string) (int64, error)
	RequestCancel(generationID string) error
}

// RedisQueue - Redis 기반 Queue 구현
type RedisQueue struct {
	rdb *goredis.Client
}

// NewRedisQueue - RedisQueue 생성
func NewRedisQueue(rdb *goredis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

func (q *RedisQueue) Enqueue(ctx context.Context, generationID string) (int64, error) {
	return redisutil.Enqueue(ctx, q.rdb, generationID)
}

func (q *RedisQueue) RequestCancel(generationID string) error {
	return redisutil.SetCancelled(q.rdb, generationID)
}
