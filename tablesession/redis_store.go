package tablesession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IncrAttempts(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := rateLimitKey(key)
	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	return count, nil
}

func (s *RedisStore) PermanentToken(ctx context.Context, tableID string) (string, error) {
	token, err := s.client.Get(ctx, permanentTokenKey(tableID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get permanent token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) SetPermanentToken(ctx context.Context, tableID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, permanentTokenKey(tableID), token, ttl).Err(); err != nil {
		return fmt.Errorf("set permanent token: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadSession(ctx context.Context, tableID string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(tableID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) SaveSession(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.TableID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, tableID string) error {
	if err := s.client.Del(ctx, sessionKey(tableID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
