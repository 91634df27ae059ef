// Package redis keeps device data in Redis under a per-device key prefix,
// for shells that run on hosts without durable local disk.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/partyshop/internal/port"
	"github.com/redis/go-redis/v9"
)

var _ port.KeyValueStore = (*Store)(nil)

type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New scopes every key to deviceID. ttl of zero keeps values until deleted.
func New(client redis.UniversalClient, deviceID string, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if deviceID == "" {
		return nil, fmt.Errorf("deviceID is empty")
	}

	return &Store{
		client: client,
		prefix: fmt.Sprintf("partyshop:%s:", deviceID),
		ttl:    ttl,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	return data, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

// Key returns the full Redis key used for key.
func (s *Store) Key(key string) string {
	return s.prefix + key
}
