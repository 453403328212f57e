package registry_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/registry"
	"github/chapool/chat-wallet/internal/storage"
	"github/chapool/chat-wallet/internal/wallet/token"
)

var usdc = common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")

func runRegistrySuite(t *testing.T, r registry.Registry) {
	t.Helper()
	ctx := t.Context()

	t.Run("IndicesAreSequentialAndStable", func(t *testing.T) {
		first, err := r.GetOrCreateIndex(ctx, 1001)
		require.NoError(t, err)
		second, err := r.GetOrCreateIndex(ctx, 1002)
		require.NoError(t, err)
		again, err := r.GetOrCreateIndex(ctx, 1001)
		require.NoError(t, err)

		assert.Equal(t, uint32(0), first)
		assert.Equal(t, uint32(1), second)
		assert.Equal(t, first, again)
	})

	t.Run("ConcurrentFirstUse", func(t *testing.T) {
		const workers = 16
		results := make([]uint32, workers)

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				idx, err := r.GetOrCreateIndex(context.Background(), 2000+int64(i%4))
				assert.NoError(t, err)
				results[i] = idx
			}()
		}
		wg.Wait()

		byUser := make(map[int64]uint32)
		seen := make(map[uint32]int64)
		for i, idx := range results {
			user := 2000 + int64(i%4)
			if prev, ok := byUser[user]; ok {
				assert.Equal(t, prev, idx, "user %d", user)
			}
			byUser[user] = idx
			if owner, ok := seen[idx]; ok {
				assert.Equal(t, owner, user, "index %d shared", idx)
			}
			seen[idx] = user
		}
		assert.Len(t, seen, 4)
	})

	t.Run("TokenRoundTrip", func(t *testing.T) {
		six := uint8(6)
		require.NoError(t, r.PutToken(ctx, 7, token.Descriptor{Symbol: "usdc", Address: usdc, Decimals: &six}))
		require.NoError(t, r.PutToken(ctx, 7, token.Descriptor{Symbol: "DAI", Address: common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f")}))

		d, err := r.GetToken(ctx, 7, "USDC")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "USDC", d.Symbol)
		assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", d.Address.Hex())
		require.NotNil(t, d.Decimals)
		assert.Equal(t, uint8(6), *d.Decimals)

		d, err = r.GetToken(ctx, 7, "dai")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Nil(t, d.Decimals)
	})

	t.Run("TokenMissingAndPerChat", func(t *testing.T) {
		d, err := r.GetToken(ctx, 8, "USDC")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("TokenLastWriterWins", func(t *testing.T) {
		other := common.HexToAddress("0x0000000000000000000000000000000000000bad")
		require.NoError(t, r.PutToken(ctx, 9, token.Descriptor{Symbol: "X", Address: usdc}))
		require.NoError(t, r.PutToken(ctx, 9, token.Descriptor{Symbol: "x", Address: other}))

		d, err := r.GetToken(ctx, 9, "X")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, other, d.Address)
	})
}

func TestKVStoreMemory(t *testing.T) {
	r := registry.NewKVStore(storage.NewMemory())
	defer r.Close()

	runRegistrySuite(t, r)
}

func TestKVStoreBadger(t *testing.T) {
	r, err := registry.Open(t.Context(), registry.Options{Backend: registry.BackendBadger, Path: t.TempDir()})
	require.NoError(t, err)
	defer r.Close()

	runRegistrySuite(t, r)
}

func TestKVStoreDocumentEncoding(t *testing.T) {
	db := storage.NewMemory()
	r := registry.NewKVStore(db)

	require.NoError(t, r.PutToken(t.Context(), 5, token.Descriptor{Symbol: "usdc", Address: usdc}))

	raw, err := db.Get([]byte("t/5/USDC"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"USDC","address":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}`, string(raw))

	_, err = r.GetOrCreateIndex(t.Context(), 77)
	require.NoError(t, err)
	raw, err = db.Get([]byte("u/77"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":0}`, string(raw))
}

type flakyDB struct {
	storage.DB
	failWrites int
}

func (f *flakyDB) Write(b *storage.Batch) error {
	if f.failWrites > 0 {
		f.failWrites--
		return errors.New("disk full")
	}
	return f.DB.Write(b)
}

func TestKVStoreFailedAssignmentKeepsIndex(t *testing.T) {
	mem := storage.NewMemory()
	r := registry.NewKVStore(&flakyDB{DB: mem, failWrites: 1})

	_, err := r.GetOrCreateIndex(t.Context(), 10)
	require.Error(t, err)

	// neither the counter nor the user was written
	_, err = mem.Get([]byte("m/next-index"))
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	_, err = mem.Get([]byte("u/10"))
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	idx, err := r.GetOrCreateIndex(t.Context(), 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)

	idx, err = r.GetOrCreateIndex(t.Context(), 11)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)

	raw, err := mem.Get([]byte("m/next-index"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"next":2}`, string(raw))
}

func TestKVStoreIndicesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	r, err := registry.Open(t.Context(), registry.Options{Backend: registry.BackendBadger, Path: dir})
	require.NoError(t, err)
	_, err = r.GetOrCreateIndex(t.Context(), 1)
	require.NoError(t, err)
	_, err = r.GetOrCreateIndex(t.Context(), 2)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = registry.Open(t.Context(), registry.Options{Backend: registry.BackendBadger, Path: dir})
	require.NoError(t, err)
	defer r.Close()

	idx, err := r.GetOrCreateIndex(t.Context(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)

	idx, err = r.GetOrCreateIndex(t.Context(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("PSQL_TEST_DSN not set")
	}

	store, err := registry.OpenPostgres(t.Context(), dsn)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.DB().ExecContext(t.Context(), `DROP TABLE IF EXISTS registry_tokens, registry_users, gorp_migrations`)
	require.NoError(t, err)
	_, err = registry.Migrate(store.DB())
	require.NoError(t, err)

	runRegistrySuite(t, store)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := registry.Open(t.Context(), registry.Options{Backend: "etcd"})
	require.Error(t, err)
}
