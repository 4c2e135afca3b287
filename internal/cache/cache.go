package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ViewGuard — дедупликация просмотров: один зритель засчитывается раз в окно TTL.
type ViewGuard interface {
	// FirstView атомарно отмечает просмотр и сообщает, первый ли он в текущем окне.
	FirstView(ctx context.Context, articleID uuid.UUID, viewer string) (bool, error)
	// Ping проверяет доступность Redis (для /healthz).
	Ping(ctx context.Context) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisViewGuard struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisViewGuard создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "articles:view:".
func NewRedisViewGuard(redisURL, prefix string, ttl time.Duration) (ViewGuard, error) {
	if prefix == "" {
		prefix = "articles:view:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisViewGuard{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (g *redisViewGuard) key(articleID uuid.UUID, viewer string) string {
	return g.prefix + articleID.String() + ":" + viewer
}

// Ключ живёт ttl; SET NX успешен только у первого просмотра в окне.
func (g *redisViewGuard) FirstView(ctx context.Context, articleID uuid.UUID, viewer string) (bool, error) {
	return g.rdb.SetNX(ctx, g.key(articleID, viewer), "1", g.ttl).Result()
}

func (g *redisViewGuard) Ping(ctx context.Context) error { return g.rdb.Ping(ctx).Err() }

func (g *redisViewGuard) Close() error { return g.rdb.Close() }
