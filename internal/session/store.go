package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"collab-service/internal/models"
)

// ErrNotFound is returned when a session id does not resolve, including after expiry.
var ErrNotFound = errors.New("session not found")

const keyPrefix = "sess:"

// Session is the server-side record referenced by the sid cookie.
type Session struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	User      models.User `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, user models.User) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, sess Session) error
	Touch(ctx context.Context, id string) error
	Destroy(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON values with a TTL equal to the session lifetime.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string {
	return keyPrefix + id
}

// Create opens a new session for user.
func (s *RedisStore) Create(ctx context.Context, user models.User) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		User:      user,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get loads a session.
func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNotFound
	}
	raw, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Save overwrites the session and resets its TTL.
func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, key(sess.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Touch extends the session lifetime.
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	ok, err := s.client.Expire(ctx, key(id), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Destroy deletes the session. Missing sessions are not an error.
func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
