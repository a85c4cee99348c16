// Package redisstore provides a Redis-backed token storage for the sessions
// anti-forgery guard, enabling server-side revocation across instances.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists anti-forgery tokens in Redis with automatic expiry.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// New creates a Store with the default key prefix.
func New(client redis.UniversalClient) *Store {
	return &Store{
		client: client,
		prefix: "sessions:",
	}
}

// NewWithPrefix creates a Store with a custom key prefix.
func NewWithPrefix(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return errors.New("storage key cannot be empty")
	}

	if ttl <= 0 {
		return errors.New("token ttl must be positive")
	}

	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}

	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	return s.client.Del(ctx, s.prefix+key).Err()
}

// ErrNotFound is returned when a token is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "token not found" }

var ErrNotFound error = notFoundError{}
