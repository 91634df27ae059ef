// Package memory is an in-process key-value store. Data lives as long as the Store value.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/nikolayk812/partyshop/internal/port"
)

var _ port.KeyValueStore = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	err    error
	writes int
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, false, s.err
	}

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}

	return bytes.Clone(v), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.data[key] = bytes.Clone(value)
	s.writes++

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	delete(s.data, key)
	s.writes++

	return nil
}

// FailWith makes every later call return err; nil restores normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// Writes counts successful Set and Delete calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.writes
}
