package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"llmaniac/internal/domain"
)

const keyPrefix = "turn:"

// Redis is a Store backed by a shared redis instance, for deployments where
// conversation context must survive a restart or span replicas. Entries
// expire instead of being evicted by count.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(addr string, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (domain.Turn, bool, error) {
	data, err := r.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Turn{}, false, nil
	}
	if err != nil {
		return domain.Turn{}, false, fmt.Errorf("failed to read turn: %w", err)
	}

	var turn domain.Turn
	if err := json.Unmarshal([]byte(data), &turn); err != nil {
		return domain.Turn{}, false, fmt.Errorf("failed to decode turn: %w", err)
	}
	return turn, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, turn domain.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, keyPrefix+key, data, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
