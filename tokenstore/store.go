// Package tokenstore keeps short-lived, single-use tokens in Redis so they
// survive across service instances.
package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "download:token:"

var (
	ErrTokenNotFound = errors.New("token not found or expired")
	ErrTokenExists   = errors.New("token already exists")
)

// Store issues and redeems single-use tokens.
type Store interface {
	Issue(ctx context.Context, payload []byte, ttl time.Duration) (string, error)
	Redeem(ctx context.Context, token string) ([]byte, error)
}

// Commands is the subset of the Redis client the store needs.
type Commands interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

type RedisStore struct {
	rdb Commands
}

func NewRedisStore(rdb Commands) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Issue stores payload under a fresh random token that expires after ttl.
func (s *RedisStore) Issue(ctx context.Context, payload []byte, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	ok, err := s.rdb.SetNX(ctx, keyPrefix+token, payload, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	if !ok {
		return "", ErrTokenExists
	}
	return token, nil
}

// Redeem atomically reads and deletes a token. A second redeem fails.
func (s *RedisStore) Redeem(ctx context.Context, token string) ([]byte, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	val, err := s.rdb.GetDel(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redeem token: %w", err)
	}
	return []byte(val), nil
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
