package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisSessionKeyPrefix = "session:"

// RedisSessionStore persists sessions in Redis so conversations survive a
// process restart.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Get returns the stored session, or nil when none exists.
func (s *RedisSessionStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := s.client.Get(ctx, redisSessionKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: redis get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("conversation: decode stored session: %w", err)
	}
	return &sess, nil
}

// Put stores the session as JSON. Sessions have no expiry; registration data
// stays valid until the user re-registers.
func (s *RedisSessionStore) Put(ctx context.Context, sess *Session) error {
	if sess == nil || sess.UserID == "" {
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("conversation: encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisSessionKeyPrefix+sess.UserID, data, 0).Err(); err != nil {
		return fmt.Errorf("conversation: redis put session: %w", err)
	}
	return nil
}
