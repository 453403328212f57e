// Package registry persists user derivation indices and per-chat tokens.
package registry

import (
	"context"

	"github/chapool/chat-wallet/internal/wallet/token"
)

// Users assigns derivation indices to chat users.
type Users interface {
	// GetOrCreateIndex returns the user's index, assigning the next free one on first use.
	// Indices start at 0, increase monotonically and never change once assigned.
	GetOrCreateIndex(ctx context.Context, userID int64) (uint32, error)
}

// Registry is a persistent user and token registry.
type Registry interface {
	Users
	token.Store
	Close() error
}

type Backend string

const (
	BackendBadger   Backend = "badger"
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
)
