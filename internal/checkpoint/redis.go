package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedisStore keeps checkpoints in Redis so watermarks survive restarts and
// can be shared by a standby instance. Keys are `rapport:checkpoint:<user>`.
type RedisStore struct {
	pool      *redis.Pool
	keyPrefix string
}

// NewRedisStore creates a checkpoint store on the given address
// (host:port).
func NewRedisStore(addr string) *RedisStore {
	pool := &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr)
		},
	}
	return &RedisStore{pool: pool, keyPrefix: "rapport:checkpoint:"}
}

// Get returns the checkpoint for a user, zero when unset.
func (r *RedisStore) Get(ctx context.Context, userID string) (int64, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	ts, err := redis.Int64(conn.Do("GET", r.keyPrefix+userID))
	if err == redis.ErrNil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get checkpoint: %w", err)
	}
	return ts, nil
}

// Set stores the checkpoint for a user.
func (r *RedisStore) Set(ctx context.Context, userID string, tsMillis int64) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("SET", r.keyPrefix+userID, tsMillis); err != nil {
		return fmt.Errorf("redis set checkpoint: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.pool.Close()
}
