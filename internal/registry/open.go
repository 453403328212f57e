package registry

import (
	"context"

	"github.com/pkg/errors"
	"github/chapool/chat-wallet/internal/storage"
)

type Options struct {
	Backend Backend
	// Path is the badger directory.
	Path string
	// DSN is the postgres connection string.
	DSN string
}

// Open returns the registry selected by opts.Backend.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func Open(ctx context.Context, opts Options) (Registry, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewKVStore(storage.NewMemory()), nil
	case BackendBadger, "":
		db, err := storage.NewBadger(opts.Path)
		if err != nil {
			return nil, err
		}
		return NewKVStore(db), nil
	case BackendPostgres:
		store, err := OpenPostgres(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		if _, err := Migrate(store.DB()); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.Errorf("unknown registry backend %q", opts.Backend)
	}
}
