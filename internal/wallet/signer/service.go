package signer

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/chain"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/txbuilder"
)

type service struct {
	client chain.Client
}

// NewService creates a new signer Service broadcasting through client
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(client chain.Client) Service {
	return &service{
		client: client,
	}
}

func (s *service) SignTransaction(account *address.Account, unsigned *txbuilder.UnsignedTransaction) (*SignedTransaction, error) {
	if account == nil || account.PrivateKey == nil {
		return nil, errs.New(errs.ErrSigning, "account has no private key")
	}
	if unsigned == nil {
		return nil, errs.New(errs.ErrSigning, "transaction is nil")
	}
	if account.Address != unsigned.From() {
		return nil, errs.Newf(errs.ErrSigning, "from address %s does not match account %s", unsigned.From().Hex(), account.Address.Hex())
	}
	if !unsigned.Consume() {
		return nil, errs.New(errs.ErrSigning, "transaction was already signed")
	}

	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    unsigned.Nonce(),
		GasPrice: unsigned.GasPrice(),
		Gas:      unsigned.GasLimit(),
		To:       unsigned.To(),
		Value:    unsigned.Value(),
		Data:     unsigned.Data(),
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(unsigned.ChainID()), account.PrivateKey)
	if err != nil {
		return nil, errs.Wrap(errs.ErrSigning, err, "failed to sign transaction")
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, errs.Wrap(errs.ErrSigning, err, "failed to marshal transaction")
	}

	return &SignedTransaction{
		raw:  raw,
		hash: signedTx.Hash(),
	}, nil
}

func (s *service) Broadcast(ctx context.Context, signed *SignedTransaction) (common.Hash, error) {
	log := util.LogFromContext(ctx)

	if signed == nil {
		return common.Hash{}, errs.New(errs.ErrBroadcastFailed, "transaction is nil")
	}
	if !signed.consumed.CompareAndSwap(false, true) {
		return common.Hash{}, errs.New(errs.ErrBroadcastFailed, "transaction was already broadcast")
	}

	hash, err := s.client.SendRawTransaction(ctx, signed.raw)
	if err != nil {
		log.Warn().Err(err).Str("tx_hash", signed.hash.Hex()).Msg("Transaction rejected")
		return common.Hash{}, errs.Wrap(errs.ErrBroadcastFailed, err, "chain rejected transaction")
	}

	log.Info().Str("tx_hash", hash.Hex()).Msg("Transaction broadcast")

	return hash, nil
}

// DecodeSignature parses 0x-prefixed hex. Malformed input is errs.ErrVerification.
func DecodeSignature(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
		text = "0x" + text
	}

	sig, err := hexutil.Decode(text)
	if err != nil {
		return nil, errs.Wrap(errs.ErrVerification, err, "signature is not valid hex")
	}

	if len(sig) != SignatureLength {
		return nil, errs.Newf(errs.ErrVerification, "signature must be %d bytes, got %d", SignatureLength, len(sig))
	}

	return sig, nil
}
