package token

import (
	"context"
	"math/big"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet/chain"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

const maxSymbolLength = 32

type view struct {
	store  Store
	client chain.Client
}

// NewView creates a token View over store, reading contracts through client
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewView(store Store, client chain.Client) View {
	return &view{
		store:  store,
		client: client,
	}
}

// NormalizeSymbol upper-cases symbol and rejects blanks, whitespace and overlong symbols.
func NormalizeSymbol(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", errs.New(errs.ErrInvalidInput, "token symbol is empty")
	}
	if len(symbol) > maxSymbolLength {
		return "", errs.Newf(errs.ErrInvalidInput, "token symbol longer than %d characters", maxSymbolLength)
	}
	if strings.IndexFunc(symbol, unicode.IsSpace) >= 0 {
		return "", errs.Newf(errs.ErrInvalidInput, "token symbol %q contains whitespace", symbol)
	}

	return strings.ToUpper(symbol), nil
}

func (v *view) Resolve(ctx context.Context, chatID int64, symbol string) (*Descriptor, error) {
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	d, err := v.store.GetToken(ctx, chatID, normalized)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up token %s", normalized)
	}
	if d == nil {
		return nil, errs.Newf(errs.ErrUnknownToken, "token %s is not registered", normalized)
	}

	return d, nil
}

func (v *view) Decimals(ctx context.Context, d *Descriptor) uint8 {
	log := util.LogFromContext(ctx)

	if d.Decimals != nil {
		return *d.Decimals
	}

	decimals, err := v.onChainDecimals(ctx, d.Address)
	if err != nil {
		log.Warn().
			Err(err).
			Str("symbol", d.Symbol).
			Str("token", d.Address.Hex()).
			Uint8("decimals", DefaultDecimals).
			Msg("Failed to read token decimals, using default")
		return DefaultDecimals
	}

	return decimals
}

func (v *view) onChainDecimals(ctx context.Context, tokenAddress common.Address) (uint8, error) {
	data, err := encodeDecimals()
	if err != nil {
		return 0, err
	}

	out, err := v.client.CallContract(ctx, tokenAddress, data)
	if err != nil {
		return 0, err
	}

	return decodeDecimals(out)
}

func (v *view) Register(ctx context.Context, chatID int64, symbol string, addr common.Address, decimals *uint8) (*Descriptor, error) {
	log := util.LogFromContext(ctx)

	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	d := Descriptor{
		Symbol:  normalized,
		Address: addr,
	}
	if decimals != nil {
		dec := *decimals
		d.Decimals = &dec
	}

	if err := v.store.PutToken(ctx, chatID, d); err != nil {
		return nil, errors.Wrapf(err, "failed to register token %s", normalized)
	}

	log.Info().
		Int64("chat_id", chatID).
		Str("symbol", normalized).
		Str("token", addr.Hex()).
		Msg("Token registered")

	return &d, nil
}

func (v *view) Balance(ctx context.Context, d *Descriptor, holder common.Address) (*big.Int, error) {
	data, err := encodeBalanceOf(holder)
	if err != nil {
		return nil, err
	}

	out, err := v.client.CallContract(ctx, d.Address, data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s balance", d.Symbol)
	}

	return decodeBalanceOf(out)
}
