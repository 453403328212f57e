package storage

import (
	"bytes"
	"sync"
)

// MemoryDB implements DB using an in-memory map.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *MemoryDB {
	return &MemoryDB{
		data: make(map[string][]byte),
	}
}

func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *MemoryDB) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *MemoryDB) Write(b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range b.entries {
		m.data[string(e.key)] = bytes.Clone(e.value)
	}
	return nil
}

func (m *MemoryDB) Close() error {
	return nil
}
