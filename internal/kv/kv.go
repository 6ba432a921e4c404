// Package kv provides the small key-value storage contract that backs all
// persisted sync state: OAuth tokens, in-flight auth sessions, the selected
// sync folder and per-domain last-sync timestamps.
package kv

import (
	"errors"
	"sync"
)

var ErrKeyNotFound = errors.New("kv: key not found")

// Store is a durable string-keyed byte store. Implementations must tolerate
// concurrent readers within a single process; cross-process coordination is
// not part of the contract.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// MemStore is an in-memory Store used in tests and short-lived embeds.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		data: make(map[string][]byte),
	}
}

func (m *MemStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (m *MemStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *MemStore) Close() error {
	return nil
}
