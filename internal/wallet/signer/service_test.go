package signer_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
	"github/chapool/chat-wallet/internal/test"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/signer"
	"github/chapool/chat-wallet/internal/wallet/txbuilder"
)

var recipient = common.HexToAddress("0x2000000000000000000000000000000000000002")

func deriveAccount(t *testing.T, index uint32) *address.Account {
	t.Helper()

	account, err := address.NewDeriver().Derive(bip39.NewSeed(test.DevMnemonic, ""), index)
	require.NoError(t, err)
	return account
}

func buildTx(t *testing.T, fake *test.FakeChain, from common.Address) *txbuilder.UnsignedTransaction {
	t.Helper()

	tx, err := txbuilder.NewBuilder(fake, big.NewInt(test.ChainID)).Build(t.Context(), txbuilder.Request{
		From:  from,
		To:    &recipient,
		Value: big.NewInt(1e18),
	}, txbuilder.DefaultPolicy())
	require.NoError(t, err)
	return tx
}

func TestSignTransaction(t *testing.T) {
	fake := test.NewFakeChain()
	account := deriveAccount(t, 0)
	fake.Nonces[account.Address] = 3

	s := signer.NewService(fake)
	signed, err := s.SignTransaction(account, buildTx(t, fake, account.Address))
	require.NoError(t, err)

	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(signed.Raw()))

	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.True(t, tx.Protected())
	assert.Equal(t, int64(test.ChainID), tx.ChainId().Int64())
	assert.Equal(t, uint64(3), tx.Nonce())
	assert.Equal(t, uint64(25200), tx.Gas())
	assert.Equal(t, recipient, *tx.To())
	assert.Equal(t, big.NewInt(1e18), tx.Value())
	assert.Equal(t, signed.Hash(), tx.Hash())

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, account.Address, from)
}

func TestSignTransactionOnce(t *testing.T) {
	fake := test.NewFakeChain()
	account := deriveAccount(t, 0)
	s := signer.NewService(fake)

	tx := buildTx(t, fake, account.Address)
	_, err := s.SignTransaction(account, tx)
	require.NoError(t, err)

	_, err = s.SignTransaction(account, tx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrSigning))
}

func TestSignTransactionRejectsBadAccount(t *testing.T) {
	fake := test.NewFakeChain()
	account := deriveAccount(t, 0)
	other := deriveAccount(t, 1)
	s := signer.NewService(fake)

	_, err := s.SignTransaction(other, buildTx(t, fake, account.Address))
	assert.True(t, errors.Is(err, errs.ErrSigning))

	_, err = s.SignTransaction(&address.Account{Address: account.Address}, buildTx(t, fake, account.Address))
	assert.True(t, errors.Is(err, errs.ErrSigning))

	_, err = s.SignTransaction(nil, buildTx(t, fake, account.Address))
	assert.True(t, errors.Is(err, errs.ErrSigning))
}

func TestBroadcast(t *testing.T) {
	fake := test.NewFakeChain()
	account := deriveAccount(t, 0)
	s := signer.NewService(fake)

	signed, err := s.SignTransaction(account, buildTx(t, fake, account.Address))
	require.NoError(t, err)

	hash, err := s.Broadcast(t.Context(), signed)
	require.NoError(t, err)
	assert.Equal(t, signed.Hash(), hash)
	assert.Len(t, hash.Hex(), 66)
	require.Len(t, fake.Sent, 1)

	_, err = s.Broadcast(t.Context(), signed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrBroadcastFailed))
	assert.Equal(t, 1, fake.CallCount("SendRawTransaction"))
}

func TestBroadcastRejected(t *testing.T) {
	fake := test.NewFakeChain()
	account := deriveAccount(t, 0)
	s := signer.NewService(fake)

	signed, err := s.SignTransaction(account, buildTx(t, fake, account.Address))
	require.NoError(t, err)

	cause := errors.New("insufficient funds for gas * price + value")
	fake.Errs["SendRawTransaction"] = cause

	_, err = s.Broadcast(t.Context(), signed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrBroadcastFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestSignMessageRoundTrip(t *testing.T) {
	s := signer.NewService(test.NewFakeChain())

	messages := []string{"", "hello", "gm ☀️", "line one\nline two", string(make([]byte, 1024))}
	for i := uint32(0); i < 4; i++ {
		account := deriveAccount(t, i)
		for _, m := range messages {
			sig, err := s.SignMessage(account, m)
			require.NoError(t, err)
			require.Len(t, sig, signer.SignatureLength)
			assert.Contains(t, []byte{27, 28}, sig[64])

			recovered, err := s.RecoverSigner(m, sig)
			require.NoError(t, err)
			assert.Equal(t, account.Address, recovered)

			ok, err := s.Verify(account.Address, m, sig)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	}
}

func TestVerifyWrongSignerOrMessage(t *testing.T) {
	s := signer.NewService(test.NewFakeChain())
	account := deriveAccount(t, 0)
	other := deriveAccount(t, 1)

	sig, err := s.SignMessage(account, "hello")
	require.NoError(t, err)

	ok, err := s.Verify(other.Address, "hello", sig)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Verify(account.Address, "hello!", sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyTamperedSignatureNeverTrue(t *testing.T) {
	s := signer.NewService(test.NewFakeChain())
	account := deriveAccount(t, 0)

	sig, err := s.SignMessage(account, "transfer approved")
	require.NoError(t, err)

	for i := range sig {
		tampered := common.CopyBytes(sig)
		tampered[i] ^= 0x01

		ok, err := s.Verify(account.Address, "transfer approved", tampered)
		if err != nil {
			assert.True(t, errors.Is(err, errs.ErrVerification), "byte %d", i)
			continue
		}
		assert.False(t, ok, "byte %d", i)
	}
}

func TestRecoverSignerMalformed(t *testing.T) {
	s := signer.NewService(test.NewFakeChain())

	for _, sig := range [][]byte{nil, make([]byte, 64), make([]byte, 66), append(make([]byte, 64), 5)} {
		_, err := s.RecoverSigner("hello", sig)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrVerification))
	}
}

func TestDecodeSignature(t *testing.T) {
	s := signer.NewService(test.NewFakeChain())
	account := deriveAccount(t, 0)
	sig, err := s.SignMessage(account, "hello")
	require.NoError(t, err)

	encoded := hexutil.Encode(sig)
	decoded, err := signer.DecodeSignature(encoded)
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)

	decoded, err = signer.DecodeSignature("  " + encoded[2:] + "\n")
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)

	for _, bad := range []string{"", "0x", "0xzz", encoded[:len(encoded)-2], encoded + "00", "0x123"} {
		_, err := signer.DecodeSignature(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, errs.ErrVerification), bad)
	}
}
