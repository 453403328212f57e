package api

import (
	"context"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/chat-wallet/internal/bot"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/i18n"
	"github/chapool/chat-wallet/internal/metrics"
	"github/chapool/chat-wallet/internal/registry"
	"github/chapool/chat-wallet/internal/wallet"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/amount"
	"github/chapool/chat-wallet/internal/wallet/chain"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/flow"
	"github/chapool/chat-wallet/internal/wallet/seed"
	"github/chapool/chat-wallet/internal/wallet/signer"
	"github/chapool/chat-wallet/internal/wallet/token"
	"github/chapool/chat-wallet/internal/wallet/txbuilder"
)

// InitNewServer opens the registry and the chain connection and wires every component.
// It fails with errs.ErrChainUnavailable when no RPC endpoint answers.
// The seed manager is returned empty, callers load the seed before serving.
func InitNewServer(ctx context.Context, cfg config.Server) (*Server, error) {
	reg, err := NewRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := NewChainClient(ctx, cfg)
	if err != nil {
		_ = reg.Close()
		return nil, err
	}

	s, err := InitNewServerWithComponents(cfg, reg, client)
	if err != nil {
		client.Close()
		_ = reg.Close()
		return nil, err
	}

	return s, nil
}

// InitNewServerWithComponents wires a server around an existing registry and chain client.
func InitNewServerWithComponents(cfg config.Server, reg registry.Registry, client chain.Client) (*Server, error) {
	walletOpts, err := NewWalletOptions(cfg)
	if err != nil {
		return nil, err
	}

	translator, err := NewI18N(cfg)
	if err != nil {
		return nil, err
	}

	metricsService, err := metrics.New()
	if err != nil {
		return nil, err
	}
	walletOpts.Recorder = metricsService

	whitelist, err := cfg.Bot.UserIDs()
	if err != nil {
		return nil, err
	}

	s := NewServer(cfg)
	s.Registry = reg
	s.Chain = client
	s.SeedManager = seed.NewManager()
	s.Deriver = address.NewDeriver()
	s.Tokens = token.NewView(reg, client)
	s.I18n = translator
	s.Metrics = metricsService
	s.Wallet = wallet.NewService(
		reg,
		s.SeedManager,
		s.Deriver,
		client,
		txbuilder.NewBuilder(client, big.NewInt(cfg.Chain.ChainID)),
		signer.NewService(client),
		s.Tokens,
		walletOpts,
	)
	s.Flow = flow.NewEngine(s.Wallet, s.Tokens, flow.Options{
		TTL:      cfg.Flow.TTL,
		Recorder: metricsService,
	})
	s.Bot = bot.NewHandler(s.Wallet, s.Flow, translator, bot.Options{
		Whitelist: whitelist,
		Network:   network(cfg),
	})

	return s, nil
}

//nolint:ireturn // Returning interface is intentional for dependency injection
func NewRegistry(ctx context.Context, cfg config.Server) (registry.Registry, error) {
	reg, err := registry.Open(ctx, registry.Options{
		Backend: registry.Backend(cfg.Registry.Backend),
		Path:    cfg.Registry.Path,
		DSN:     cfg.Registry.DSN,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open registry")
	}

	return reg, nil
}

// NewChainClient dials the configured endpoints and refuses to continue while none answers.
func NewChainClient(ctx context.Context, cfg config.Server) (*chain.RPCClient, error) {
	client, err := chain.NewRPCClient(cfg.Chain.RPCURLs)
	if err != nil {
		return nil, err
	}

	if !client.IsConnected(ctx) {
		client.Close()
		return nil, errs.New(errs.ErrChainUnavailable, "no RPC endpoint answers")
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if id.Int64() != cfg.Chain.ChainID {
		log.Warn().
			Int64("configured", cfg.Chain.ChainID).
			Str("node", id.String()).
			Msg("Configured CHAIN_ID differs from the node, transactions are signed for the configured one")
	}

	return client, nil
}

func NewI18N(cfg config.Server) (*i18n.Service, error) {
	return i18n.New(cfg.I18n)
}

func NewWalletOptions(cfg config.Server) (wallet.Options, error) {
	opts := wallet.DefaultOptions()

	gasPrice, err := cfg.GasPriceGwei()
	if err != nil {
		return opts, err
	}
	opts.Policy = txbuilder.Policy{
		GasPriceGwei:     gasPrice,
		GasMarginPercent: cfg.Chain.GasMarginPercent,
	}

	opts.FaucetKey, err = cfg.FaucetKey()
	if err != nil {
		return opts, err
	}

	faucetDefault, err := cfg.FaucetDefaultAmount()
	if err != nil {
		return opts, err
	}
	opts.FaucetDefault = amount.ToBaseUnits(faucetDefault, amount.NativeDecimals)

	opts.HistoryBlocks = cfg.History.DefaultBlocks
	opts.HistoryMaxHits = cfg.History.MaxHits
	opts.SerializeSubmissions = cfg.Wallet.SerializeSubmissions

	return opts, nil
}

func network(cfg config.Server) string {
	return "chain " + strconv.FormatInt(cfg.Chain.ChainID, 10)
}
