package chain_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/test"
	"github/chapool/chat-wallet/internal/wallet/chain"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

func newFundedChain(t *testing.T) (*test.Chain, *types.Transaction, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	c := test.NewTestChain(t, types.GenesisAlloc{from: {Balance: test.Ethers(10)}})

	ctx := t.Context()
	gasPrice, err := c.Client.GasPrice(ctx)
	require.NoError(t, err)

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: gasPrice,
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(12345),
	}), types.LatestSignerForChainID(big.NewInt(test.ChainID)), key)
	require.NoError(t, err)

	return c, tx, from
}

func TestRPCClientReads(t *testing.T) {
	c, _, from := newFundedChain(t)
	ctx := t.Context()

	assert.True(t, c.Client.IsConnected(ctx))

	chainID, err := c.Client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(test.ChainID), chainID.Int64())

	balance, err := c.Client.Balance(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, test.Ethers(10), balance)

	nonce, err := c.Client.TransactionCount(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)

	gas, err := c.Client.EstimateGas(ctx, chain.CallRequest{
		From:  from,
		To:    &common.Address{0xaa},
		Value: big.NewInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)
}

func TestRPCClientSendAndScan(t *testing.T) {
	c, tx, from := newFundedChain(t)
	ctx := t.Context()

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	hash, err := c.Client.SendRawTransaction(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), hash)

	pending, err := c.Client.TransactionCount(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pending)

	before, err := c.Client.LatestBlockNumber(ctx)
	require.NoError(t, err)

	c.Commit()

	latest, err := c.Client.LatestBlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, before+1, latest)

	block, err := c.Client.Block(ctx, latest, true)
	require.NoError(t, err)
	assert.Equal(t, latest, block.Number)
	require.Len(t, block.Transactions, 1)
	assert.Equal(t, hash, block.Transactions[0].Hash)
	assert.Equal(t, from, block.Transactions[0].From)
	require.NotNil(t, block.Transactions[0].To)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000aa"), *block.Transactions[0].To)
	assert.Equal(t, big.NewInt(12345), block.Transactions[0].Value)

	header, err := c.Client.Block(ctx, latest, false)
	require.NoError(t, err)
	assert.Equal(t, block.Hash, header.Hash)
	assert.Empty(t, header.Transactions)
}

func TestRPCClientRejectsGarbage(t *testing.T) {
	c, _, _ := newFundedChain(t)

	_, err := c.Client.SendRawTransaction(t.Context(), []byte{0x01, 0x02})
	require.Error(t, err)
}

func TestRPCClientRejectsReplay(t *testing.T) {
	c, tx, _ := newFundedChain(t)
	ctx := t.Context()

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	_, err = c.Client.SendRawTransaction(ctx, raw)
	require.NoError(t, err)
	c.Commit()

	_, err = c.Client.SendRawTransaction(ctx, raw)
	require.Error(t, err)
}

type downBackend struct {
	chain.Backend
}

func (downBackend) ChainID(context.Context) (*big.Int, error) {
	return nil, errors.New("connection refused")
}

func TestRPCClientFailover(t *testing.T) {
	c, _, from := newFundedChain(t)
	ctx := t.Context()

	client := chain.NewClient(downBackend{}, c.Backend.Client())
	assert.True(t, client.IsConnected(ctx))

	balance, err := client.Balance(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, test.Ethers(10), balance)
}

func TestRPCClientAllDown(t *testing.T) {
	ctx := t.Context()

	client := chain.NewClient(downBackend{}, downBackend{})
	assert.False(t, client.IsConnected(ctx))

	_, err := client.Balance(ctx, common.Address{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrChainUnavailable))

	single := chain.NewClient(downBackend{})
	assert.False(t, single.IsConnected(ctx))
}
