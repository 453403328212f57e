package signer

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/txbuilder"
)

// SignatureLength is r || s || v.
const SignatureLength = 65

// Service signs transactions and personal messages with derived accounts.
type Service interface {
	// SignTransaction signs tx as an EIP-155 legacy transaction. tx can be signed once.
	// A missing or mismatched key is errs.ErrSigning.
	SignTransaction(account *address.Account, tx *txbuilder.UnsignedTransaction) (*SignedTransaction, error)

	// Broadcast submits signed once and returns the node's transaction hash.
	// Rejections are errs.ErrBroadcastFailed. Nothing is retried.
	Broadcast(ctx context.Context, signed *SignedTransaction) (common.Hash, error)

	// SignMessage signs text with the "\x19Ethereum Signed Message:\n" prefix.
	// The returned V is 27 or 28.
	SignMessage(account *address.Account, text string) ([]byte, error)

	// RecoverSigner returns the address that produced signature over text.
	// Malformed signatures are errs.ErrVerification.
	RecoverSigner(text string, signature []byte) (common.Address, error)

	// Verify reports whether signature over text was produced by addr.
	Verify(addr common.Address, text string, signature []byte) (bool, error)
}

// SignedTransaction is the raw encoding ready for broadcast.
type SignedTransaction struct {
	raw  []byte
	hash common.Hash

	consumed atomic.Bool
}

func (t *SignedTransaction) Raw() []byte       { return common.CopyBytes(t.raw) }
func (t *SignedTransaction) Hash() common.Hash { return t.hash }
