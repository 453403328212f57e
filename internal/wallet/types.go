package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/chat-wallet/internal/wallet/flow"
	"github/chapool/chat-wallet/internal/wallet/token"
	"github/chapool/chat-wallet/internal/wallet/txbuilder"
)

// Service is the custodial wallet behind the chat commands.
// Every user owns the account derived at their registry index.
type Service interface {
	flow.Submitter

	// Account returns the caller's index and address, assigning an index on first use.
	Account(ctx context.Context, userID int64) (*Account, error)

	// Balance returns the native balance of override, or of the caller's account when override is empty.
	// A malformed override is errs.ErrInvalidInput.
	Balance(ctx context.Context, userID int64, override string) (*Balance, error)

	// TokenBalance returns the caller's balance of a token registered in chatID.
	TokenBalance(ctx context.Context, chatID int64, userID int64, symbol string) (*Balance, error)

	// RegisterToken stores a token for chatID. Decimals may be nil.
	RegisterToken(ctx context.Context, chatID int64, symbol string, addr common.Address, decimals *uint8) (*token.Descriptor, error)

	// Faucet sends value, or the configured default when nil, from the faucet key to the caller.
	// Without a faucet key it fails with errs.ErrFaucetUnconfigured before any chain call.
	Faucet(ctx context.Context, userID int64, value *big.Int) (*Transfer, error)

	// History scans the latest blocks for transactions from or to the caller's account.
	// Zero blocks means the configured default window.
	History(ctx context.Context, userID int64, blocks uint64) (*History, error)
}

type Account struct {
	Index   uint32
	Address common.Address
}

type Balance struct {
	Address  common.Address
	Symbol   string
	Units    *big.Int
	Decimals uint8
	Display  string
}

type Transfer struct {
	From   common.Address
	To     common.Address
	Value  *big.Int
	Amount string
	TxHash common.Hash
}

type History struct {
	Address   common.Address
	FromBlock uint64
	ToBlock   uint64
	// LastBlock is the last block scanned. It is below ToBlock when the hit limit stopped the scan.
	LastBlock uint64
	Hashes    []common.Hash
}

// Recorder observes submissions.
type Recorder interface {
	Submission(kind string, err error)
}

const (
	SubmissionNative = "native"
	SubmissionToken  = "token"
	SubmissionFaucet = "faucet"
)

type Options struct {
	Policy txbuilder.Policy

	// FaucetKey funds the faucet. Nil disables it.
	FaucetKey     *ecdsa.PrivateKey
	FaucetDefault *big.Int

	HistoryBlocks  uint64
	HistoryMaxHits int

	// SerializeSubmissions holds a per-sender lock from nonce lookup to broadcast.
	SerializeSubmissions bool

	Recorder Recorder
}

const (
	DefaultHistoryBlocks  = 100
	DefaultHistoryMaxHits = 20
)

// DefaultFaucetAmount is 0.1 of the native asset in wei.
var DefaultFaucetAmount = big.NewInt(100_000_000_000_000_000)

func DefaultOptions() Options {
	return Options{
		Policy:               txbuilder.DefaultPolicy(),
		FaucetDefault:        new(big.Int).Set(DefaultFaucetAmount),
		HistoryBlocks:        DefaultHistoryBlocks,
		HistoryMaxHits:       DefaultHistoryMaxHits,
		SerializeSubmissions: true,
	}
}
