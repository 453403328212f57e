package wallet

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/chat-wallet/internal/registry"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/amount"
	"github/chapool/chat-wallet/internal/wallet/chain"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/seed"
	"github/chapool/chat-wallet/internal/wallet/signer"
	"github/chapool/chat-wallet/internal/wallet/token"
	"github/chapool/chat-wallet/internal/wallet/txbuilder"
)

type service struct {
	users       registry.Users
	seedManager seed.Manager
	deriver     address.Deriver
	client      chain.Client
	builder     txbuilder.Builder
	signer      signer.Service
	tokens      token.View
	opts        Options

	faucet *address.Account

	// senders maps an address to the *sync.Mutex serializing its submissions
	senders sync.Map
}

// NewService creates a new wallet Service
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(
	users registry.Users,
	seedManager seed.Manager,
	deriver address.Deriver,
	client chain.Client,
	builder txbuilder.Builder,
	signerService signer.Service,
	tokens token.View,
	opts Options,
) Service {
	if opts.FaucetDefault == nil {
		opts.FaucetDefault = new(big.Int).Set(DefaultFaucetAmount)
	}
	if opts.HistoryBlocks == 0 {
		opts.HistoryBlocks = DefaultHistoryBlocks
	}
	if opts.HistoryMaxHits <= 0 {
		opts.HistoryMaxHits = DefaultHistoryMaxHits
	}

	s := &service{
		users:       users,
		seedManager: seedManager,
		deriver:     deriver,
		client:      client,
		builder:     builder,
		signer:      signerService,
		tokens:      tokens,
		opts:        opts,
	}

	if opts.FaucetKey != nil {
		s.faucet = &address.Account{
			Address:    crypto.PubkeyToAddress(opts.FaucetKey.PublicKey),
			PrivateKey: opts.FaucetKey,
		}
	}

	return s
}

func (s *service) Account(ctx context.Context, userID int64) (*Account, error) {
	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Account{Index: account.Index, Address: account.Address}, nil
}

func (s *service) Balance(ctx context.Context, userID int64, override string) (*Balance, error) {
	var target common.Address
	if override = strings.TrimSpace(override); override != "" {
		parsed, err := address.ParseAddress(override)
		if err != nil {
			return nil, err
		}
		target = parsed
	} else {
		account, err := s.account(ctx, userID)
		if err != nil {
			return nil, err
		}
		target = account.Address
	}

	units, err := s.client.Balance(ctx, target)
	if err != nil {
		return nil, err
	}

	return &Balance{
		Address:  target,
		Units:    units,
		Decimals: amount.NativeDecimals,
		Display:  amount.Format(units, amount.NativeDecimals),
	}, nil
}

func (s *service) TokenBalance(ctx context.Context, chatID int64, userID int64, symbol string) (*Balance, error) {
	d, err := s.tokens.Resolve(ctx, chatID, symbol)
	if err != nil {
		return nil, err
	}

	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	units, err := s.tokens.Balance(ctx, d, account.Address)
	if err != nil {
		return nil, err
	}

	decimals := s.tokens.Decimals(ctx, d)

	return &Balance{
		Address:  account.Address,
		Symbol:   d.Symbol,
		Units:    units,
		Decimals: decimals,
		Display:  amount.Format(units, decimals),
	}, nil
}

func (s *service) RegisterToken(ctx context.Context, chatID int64, symbol string, addr common.Address, decimals *uint8) (*token.Descriptor, error) {
	return s.tokens.Register(ctx, chatID, symbol, addr, decimals)
}

func (s *service) SendNative(ctx context.Context, userID int64, to common.Address, value *big.Int) (common.Hash, error) {
	account, err := s.account(ctx, userID)
	if err != nil {
		return common.Hash{}, err
	}

	return s.submit(ctx, SubmissionNative, account, txbuilder.Request{
		From:  account.Address,
		To:    &to,
		Value: value,
	})
}

// SendToken calls transfer(to, value) on the token contract with zero native value.
func (s *service) SendToken(ctx context.Context, userID int64, d *token.Descriptor, to common.Address, value *big.Int) (common.Hash, error) {
	data, err := token.EncodeTransfer(to, value)
	if err != nil {
		return common.Hash{}, err
	}

	account, err := s.account(ctx, userID)
	if err != nil {
		return common.Hash{}, err
	}

	contract := d.Address
	return s.submit(ctx, SubmissionToken, account, txbuilder.Request{
		From:  account.Address,
		To:    &contract,
		Value: new(big.Int),
		Data:  data,
	})
}

func (s *service) SignMessage(ctx context.Context, userID int64, text string) ([]byte, error) {
	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.signer.SignMessage(account, text)
}

// VerifyMessage decodes signature and compares the recovered signer with addr.
// Malformed signatures are errs.ErrVerification, never a false result.
func (s *service) VerifyMessage(_ context.Context, addr common.Address, text string, signature string) (bool, common.Address, error) {
	sig, err := signer.DecodeSignature(signature)
	if err != nil {
		return false, common.Address{}, err
	}

	recovered, err := s.signer.RecoverSigner(text, sig)
	if err != nil {
		return false, common.Address{}, err
	}

	return address.SameAddress(recovered, addr), recovered, nil
}

func (s *service) Faucet(ctx context.Context, userID int64, value *big.Int) (*Transfer, error) {
	if s.faucet == nil {
		return nil, errs.New(errs.ErrFaucetUnconfigured, "faucet private key is not configured")
	}

	if value == nil {
		value = new(big.Int).Set(s.opts.FaucetDefault)
	}
	if value.Sign() < 0 {
		return nil, errs.New(errs.ErrInvalidInput, "faucet amount is negative")
	}

	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	to := account.Address
	hash, err := s.submit(ctx, SubmissionFaucet, s.faucet, txbuilder.Request{
		From:  s.faucet.Address,
		To:    &to,
		Value: value,
	})
	if err != nil {
		return nil, err
	}

	return &Transfer{
		From:   s.faucet.Address,
		To:     to,
		Value:  value,
		Amount: amount.Format(value, amount.NativeDecimals),
		TxHash: hash,
	}, nil
}

// account derives the caller's account from the registry index.
func (s *service) account(ctx context.Context, userID int64) (*address.Account, error) {
	index, err := s.users.GetOrCreateIndex(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve derivation index")
	}

	seedBytes := s.seedManager.GetSeed()
	if seedBytes == nil {
		return nil, errs.New(errs.ErrInvalidSeed, "seed not initialized")
	}
	defer clear(seedBytes)

	return s.deriver.Derive(seedBytes, index)
}

// submit builds, signs and broadcasts req. Errors keep their kind.
func (s *service) submit(ctx context.Context, kind string, account *address.Account, req txbuilder.Request) (hash common.Hash, err error) {
	log := util.LogFromContext(ctx).With().
		Str("kind", kind).
		Str("from", account.Address.Hex()).
		Logger()

	defer func() {
		if s.opts.Recorder != nil {
			s.opts.Recorder.Submission(kind, err)
		}
	}()

	if s.opts.SerializeSubmissions {
		unlock := s.lockSender(account.Address)
		defer unlock()
	}

	unsigned, err := s.builder.Build(ctx, req, s.opts.Policy)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build transaction")
		return common.Hash{}, err
	}

	signed, err := s.signer.SignTransaction(account, unsigned)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign transaction")
		return common.Hash{}, err
	}

	hash, err = s.signer.Broadcast(ctx, signed)
	if err != nil {
		return common.Hash{}, err
	}

	log.Info().
		Str("tx_hash", hash.Hex()).
		Uint64("nonce", unsigned.Nonce()).
		Uint64("gas_limit", unsigned.GasLimit()).
		Msg("Transaction submitted")

	return hash, nil
}

func (s *service) lockSender(addr common.Address) func() {
	v, _ := s.senders.LoadOrStore(addr, &sync.Mutex{})
	mu := v.(*sync.Mutex) //nolint:forcetypeassert // only mutexes are stored
	mu.Lock()
	return mu.Unlock
}
