package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis key names. Fixed by the storefront contract: whatever stores the
// credential does so under these three names.
const (
	keyToken    = "token"
	keyUsername = "username"
	keyBalance  = "balance"
)

// RedisStore persists the session in Redis under the fixed key names,
// optionally namespaced by a prefix so multiple storefront users can share
// one Redis instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store against the given address.
// prefix may be empty; when set, keys become "<prefix>:token" etc.
func NewRedisStore(addr, prefix string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

func (r *RedisStore) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return r.prefix + ":" + name
}

func (r *RedisStore) Load(ctx context.Context) (Session, error) {
	vals, err := r.client.MGet(ctx, r.key(keyToken), r.key(keyUsername), r.key(keyBalance)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("loading session from redis: %w", err)
	}

	var s Session
	if v, ok := vals[0].(string); ok {
		s.Token = v
	}
	if v, ok := vals[1].(string); ok {
		s.Username = v
	}
	if v, ok := vals[2].(string); ok {
		cents, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Session{}, fmt.Errorf("invalid balance value %q: %w", v, err)
		}
		s.BalanceCents = cents
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(keyToken), s.Token, 0)
		pipe.Set(ctx, r.key(keyUsername), s.Username, 0)
		pipe.Set(ctx, r.key(keyBalance), strconv.FormatInt(s.BalanceCents, 10), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving session to redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	err := r.client.Del(ctx, r.key(keyToken), r.key(keyUsername), r.key(keyBalance)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clearing session in redis: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
