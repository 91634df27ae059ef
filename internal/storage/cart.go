// Package storage adapts device key-value stores to the cart persistence port.
package storage

import (
	"context"
	"fmt"

	"github.com/nikolayk812/partyshop/internal/port"
)

// CartKey is where the cart snapshot lives in device storage.
const CartKey = "userCart"

type cartStorage struct {
	kv  port.KeyValueStore
	key string
}

func NewCart(kv port.KeyValueStore) port.CartStorage {
	return &cartStorage{kv: kv, key: CartKey}
}

func (s *cartStorage) ReadCart(ctx context.Context) ([]byte, bool, error) {
	snapshot, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, false, fmt.Errorf("kv.Get: %w", err)
	}

	return snapshot, ok, nil
}

func (s *cartStorage) WriteCart(ctx context.Context, snapshot []byte) error {
	if err := s.kv.Set(ctx, s.key, snapshot); err != nil {
		return fmt.Errorf("kv.Set: %w", err)
	}

	return nil
}

func (s *cartStorage) DeleteCart(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("kv.Delete: %w", err)
	}

	return nil
}
