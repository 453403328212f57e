package token_test

import (
	"bytes"
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/test"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/token"
)

var (
	usdc   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	holder = common.HexToAddress("0x1000000000000000000000000000000000000001")

	decimalsSelector  = common.FromHex("0x313ce567")
	balanceOfSelector = common.FromHex("0x70a08231")
)

type memStore struct {
	mu     sync.Mutex
	tokens map[int64]map[string]token.Descriptor
}

func newMemStore() *memStore {
	return &memStore{tokens: make(map[int64]map[string]token.Descriptor)}
}

func (m *memStore) GetToken(_ context.Context, chatID int64, symbol string) (*token.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.tokens[chatID][symbol]
	if !ok {
		return nil, nil //nolint:nilnil // absent token
	}
	return &d, nil
}

func (m *memStore) PutToken(_ context.Context, chatID int64, d token.Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens[chatID] == nil {
		m.tokens[chatID] = make(map[string]token.Descriptor)
	}
	m.tokens[chatID][d.Symbol] = d
	return nil
}

func word(n int64) []byte {
	return common.LeftPadBytes(big.NewInt(n).Bytes(), 32)
}

func TestEncodeTransfer(t *testing.T) {
	to := common.HexToAddress("0x2000000000000000000000000000000000000002")
	data, err := token.EncodeTransfer(to, big.NewInt(2500000))
	require.NoError(t, err)

	want := append(common.FromHex("0xa9059cbb"), common.LeftPadBytes(to.Bytes(), 32)...)
	want = append(want, common.BigToHash(big.NewInt(2500000)).Bytes()...)
	assert.Equal(t, want, data)
	assert.Len(t, data, 68)
}

func TestRegisterAndResolve(t *testing.T) {
	ctx := t.Context()
	store := newMemStore()
	v := token.NewView(store, test.NewFakeChain())

	six := uint8(6)
	d, err := v.Register(ctx, 100, " usdc ", usdc, &six)
	require.NoError(t, err)
	assert.Equal(t, "USDC", d.Symbol)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", d.Address.Hex())
	require.NotNil(t, d.Decimals)
	assert.Equal(t, uint8(6), *d.Decimals)

	six = 9
	resolved, err := v.Resolve(ctx, 100, "Usdc")
	require.NoError(t, err)
	assert.Equal(t, uint8(6), *resolved.Decimals)
	assert.Equal(t, usdc, resolved.Address)

	_, err = v.Resolve(ctx, 200, "USDC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnknownToken))
}

func TestRegisterOverwrites(t *testing.T) {
	ctx := t.Context()
	v := token.NewView(newMemStore(), test.NewFakeChain())

	_, err := v.Register(ctx, 1, "DAI", usdc, nil)
	require.NoError(t, err)
	other := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	_, err = v.Register(ctx, 1, "dai", other, nil)
	require.NoError(t, err)

	d, err := v.Resolve(ctx, 1, "DAI")
	require.NoError(t, err)
	assert.Equal(t, other, d.Address)
	assert.Nil(t, d.Decimals)
}

func TestSymbolValidation(t *testing.T) {
	v := token.NewView(newMemStore(), test.NewFakeChain())

	for _, symbol := range []string{"", "   ", "US DC", "ABCDEFGHIJKLMNOPQRSTUVWXYZABCDEFG"} {
		_, err := v.Resolve(t.Context(), 1, symbol)
		require.Error(t, err, symbol)
		assert.True(t, errors.Is(err, errs.ErrInvalidInput), symbol)

		_, err = v.Register(t.Context(), 1, symbol, usdc, nil)
		assert.True(t, errors.Is(err, errs.ErrInvalidInput), symbol)
	}
}

func TestDecimalsFromRegistry(t *testing.T) {
	fake := test.NewFakeChain()
	v := token.NewView(newMemStore(), fake)

	eight := uint8(8)
	assert.Equal(t, uint8(8), v.Decimals(t.Context(), &token.Descriptor{Symbol: "WBTC", Address: usdc, Decimals: &eight}))
	assert.Zero(t, fake.CallCount("CallContract"))
}

func TestDecimalsFromChain(t *testing.T) {
	fake := test.NewFakeChain()
	fake.Call = func(to common.Address, data []byte) ([]byte, error) {
		if to == usdc && bytes.Equal(data, decimalsSelector) {
			return word(6), nil
		}
		return nil, errors.New("execution reverted")
	}
	v := token.NewView(newMemStore(), fake)

	assert.Equal(t, uint8(6), v.Decimals(t.Context(), &token.Descriptor{Symbol: "USDC", Address: usdc}))
	assert.Equal(t, 1, fake.CallCount("CallContract"))
}

func TestDecimalsDefault(t *testing.T) {
	fake := test.NewFakeChain()
	v := token.NewView(newMemStore(), fake)

	assert.Equal(t, token.DefaultDecimals, v.Decimals(t.Context(), &token.Descriptor{Symbol: "ODD", Address: usdc}))

	fake.Call = func(common.Address, []byte) ([]byte, error) { return []byte{0x01}, nil }
	assert.Equal(t, token.DefaultDecimals, v.Decimals(t.Context(), &token.Descriptor{Symbol: "ODD", Address: usdc}))
}

func TestBalance(t *testing.T) {
	fake := test.NewFakeChain()
	fake.Call = func(to common.Address, data []byte) ([]byte, error) {
		want := append(common.CopyBytes(balanceOfSelector), common.LeftPadBytes(holder.Bytes(), 32)...)
		if to != usdc || !bytes.Equal(data, want) {
			return nil, errors.New("unexpected call")
		}
		return word(1234567), nil
	}
	v := token.NewView(newMemStore(), fake)

	balance, err := v.Balance(t.Context(), &token.Descriptor{Symbol: "USDC", Address: usdc}, holder)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1234567), balance)

	fake.Errs["CallContract"] = errors.New("rpc down")
	_, err = v.Balance(t.Context(), &token.Descriptor{Symbol: "USDC", Address: usdc}, holder)
	require.Error(t, err)
}
