package txbuilder_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/test"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/txbuilder"
)

var (
	sender    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	recipient = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func TestBuildNative(t *testing.T) {
	fake := test.NewFakeChain()
	fake.Nonces[sender] = 7
	fake.Price = big.NewInt(3_000_000_000)

	b := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID))
	tx, err := b.Build(t.Context(), txbuilder.Request{
		From:  sender,
		To:    &recipient,
		Value: big.NewInt(1e18),
	}, txbuilder.DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, []string{"TransactionCount", "GasPrice", "EstimateGas"}, fake.Calls())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, big.NewInt(3_000_000_000), tx.GasPrice())
	assert.Equal(t, uint64(25200), tx.GasLimit())
	assert.Equal(t, int64(test.ChainID), tx.ChainID().Int64())
	assert.Equal(t, sender, tx.From())
	assert.Equal(t, recipient, *tx.To())
	assert.Equal(t, big.NewInt(1e18), tx.Value())
	assert.Empty(t, tx.Data())

	require.Len(t, fake.Estimates, 1)
	est := fake.Estimates[0]
	assert.Equal(t, sender, est.From)
	assert.Equal(t, &recipient, est.To)
	assert.Equal(t, big.NewInt(1e18), est.Value)
	assert.Nil(t, est.Data)
	assert.Equal(t, big.NewInt(3_000_000_000), est.GasPrice)
}

func TestBuildCallsNonceExactlyOnce(t *testing.T) {
	fake := test.NewFakeChain()
	b := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID))

	for i := uint64(0); i < 3; i++ {
		fake.Nonces[sender] = 40 + i
		tx, err := b.Build(t.Context(), txbuilder.Request{From: sender, To: &recipient}, txbuilder.DefaultPolicy())
		require.NoError(t, err)
		assert.Equal(t, 40+i, tx.Nonce())
		assert.Equal(t, int(i+1), fake.CallCount("TransactionCount"))
	}
}

func TestBuildGweiOverride(t *testing.T) {
	fake := test.NewFakeChain()
	gwei := decimal.RequireFromString("1.0000000019")

	b := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID))
	tx, err := b.Build(t.Context(), txbuilder.Request{From: sender, To: &recipient}, txbuilder.Policy{GasPriceGwei: &gwei})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(1_000_000_001), tx.GasPrice())
	assert.Zero(t, fake.CallCount("GasPrice"))
}

func TestBuildOmitsNullFields(t *testing.T) {
	fake := test.NewFakeChain()
	data := []byte{0xa9, 0x05, 0x9c, 0xbb}

	b := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID))
	tx, err := b.Build(t.Context(), txbuilder.Request{From: sender, Data: data}, txbuilder.DefaultPolicy())
	require.NoError(t, err)

	require.Len(t, fake.Estimates, 1)
	assert.Nil(t, fake.Estimates[0].To)
	assert.Nil(t, fake.Estimates[0].Value)
	assert.Equal(t, data, fake.Estimates[0].Data)

	assert.Nil(t, tx.To())
	assert.Equal(t, int64(0), tx.Value().Int64())
	assert.Equal(t, data, tx.Data())
}

func TestBuildFailures(t *testing.T) {
	for _, method := range []string{"TransactionCount", "GasPrice", "EstimateGas"} {
		fake := test.NewFakeChain()
		cause := errors.New("rpc down")
		fake.Errs[method] = cause

		b := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID))
		tx, err := b.Build(t.Context(), txbuilder.Request{From: sender, To: &recipient}, txbuilder.DefaultPolicy())
		require.Error(t, err, method)
		assert.Nil(t, tx, method)
		assert.True(t, errors.Is(err, errs.ErrBuildFailed), method)
		assert.True(t, errors.Is(err, cause), method)
		assert.Zero(t, fake.CallCount("SendRawTransaction"), method)
	}
}

func TestBuildWithoutMargin(t *testing.T) {
	fake := test.NewFakeChain()
	b := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID))

	tx, err := b.Build(t.Context(), txbuilder.Request{From: sender, To: &recipient}, txbuilder.Policy{GasMarginPercent: 0})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), tx.GasLimit())

	tx, err = b.Build(t.Context(), txbuilder.Request{From: sender, To: &recipient}, txbuilder.Policy{GasMarginPercent: 50})
	require.NoError(t, err)
	assert.Equal(t, uint64(31500), tx.GasLimit())
}

func TestWithMargin(t *testing.T) {
	assert.Equal(t, uint64(25200), txbuilder.WithMargin(21000, 20))
	// ceil(21001 * 1.2) = ceil(25201.2)
	assert.Equal(t, uint64(25202), txbuilder.WithMargin(21001, 20))
	assert.Equal(t, uint64(21000), txbuilder.WithMargin(21000, 0))
	assert.Equal(t, uint64(0), txbuilder.WithMargin(0, 20))
	assert.Equal(t, ^uint64(0), txbuilder.WithMargin(^uint64(0), 20))
}

func TestUnsignedTransactionConsumeOnce(t *testing.T) {
	fake := test.NewFakeChain()
	tx, err := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID)).
		Build(t.Context(), txbuilder.Request{From: sender, To: &recipient}, txbuilder.DefaultPolicy())
	require.NoError(t, err)

	assert.True(t, tx.Consume())
	assert.False(t, tx.Consume())
}

func TestUnsignedTransactionImmutable(t *testing.T) {
	fake := test.NewFakeChain()
	value := big.NewInt(5)
	tx, err := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID)).
		Build(t.Context(), txbuilder.Request{From: sender, To: &recipient, Value: value}, txbuilder.DefaultPolicy())
	require.NoError(t, err)

	value.SetInt64(99)
	tx.Value().SetInt64(100)
	*tx.To() = common.Address{}

	assert.Equal(t, int64(5), tx.Value().Int64())
	assert.Equal(t, recipient, *tx.To())
}
