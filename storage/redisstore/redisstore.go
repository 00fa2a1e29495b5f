// Package redisstore keeps saved output in Redis so several workers can share it.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wudi/pdfmerge/storage"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL applies to every stored blob; zero keeps them until deleted.
	TTL time.Duration
}

// Store implements storage.Storage on top of Redis strings.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ storage.Storage = (*Store)(nil)

// New connects and pings Redis.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewWithClient wraps an already configured client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "pdfmerge:"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(path string) string {
	return s.prefix + strings.TrimPrefix(path, "/")
}

// dirKey marks a directory; Redis has no hierarchy of its own.
func (s *Store) dirKey(path string) string {
	return s.key(strings.TrimSuffix(path, "/")) + "/"
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(path), s.dirKey(path)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	if err := s.client.Set(ctx, s.key(path), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotExist, path)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, s.key(path)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (s *Store) MakeDirectory(ctx context.Context, path string) error {
	if err := s.client.Set(ctx, s.dirKey(path), "", 0).Err(); err != nil {
		return fmt.Errorf("redis mkdir: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
