// Package storage provides the key-value backends behind the registries.
package storage

import (
	"bytes"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("key not found")

// DB is a key-value store safe for concurrent use.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	// Write applies every entry of b in one transaction. Either all of
	// them become visible or none do.
	Write(b *Batch) error
	Close() error
}

// Batch collects puts for a single DB.Write.
type Batch struct {
	entries []entry
}

type entry struct {
	key   []byte
	value []byte
}

// Put queues key=value. Later puts of the same key win.
func (b *Batch) Put(key, value []byte) {
	b.entries = append(b.entries, entry{key: bytes.Clone(key), value: bytes.Clone(value)})
}

func (b *Batch) Len() int {
	return len(b.entries)
}
