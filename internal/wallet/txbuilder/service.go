package txbuilder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet/amount"
	"github/chapool/chat-wallet/internal/wallet/chain"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

type builder struct {
	client  chain.Client
	chainID *big.Int
}

// NewBuilder creates a Builder for chainID
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewBuilder(client chain.Client, chainID *big.Int) Builder {
	return &builder{
		client:  client,
		chainID: new(big.Int).Set(chainID),
	}
}

func (b *builder) Build(ctx context.Context, req Request, policy Policy) (*UnsignedTransaction, error) {
	log := util.LogFromContext(ctx)

	nonce, err := b.client.TransactionCount(ctx, req.From)
	if err != nil {
		return nil, errs.Wrap(errs.ErrBuildFailed, err, "failed to resolve nonce")
	}

	gasPrice, err := b.gasPrice(ctx, policy)
	if err != nil {
		return nil, errs.Wrap(errs.ErrBuildFailed, err, "failed to resolve gas price")
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	estimate, err := b.client.EstimateGas(ctx, chain.CallRequest{
		From:     req.From,
		To:       req.To,
		Value:    req.Value,
		Data:     req.Data,
		GasPrice: gasPrice,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrBuildFailed, err, "failed to estimate gas")
	}

	gasLimit := WithMargin(estimate, policy.GasMarginPercent)

	log.Debug().
		Str("from", req.From.Hex()).
		Uint64("nonce", nonce).
		Str("gas_price", gasPrice.String()).
		Uint64("gas_estimate", estimate).
		Uint64("gas_limit", gasLimit).
		Msg("Built transaction")

	var to *common.Address
	if req.To != nil {
		addr := *req.To
		to = &addr
	}

	return &UnsignedTransaction{
		chainID:  new(big.Int).Set(b.chainID),
		from:     req.From,
		to:       to,
		value:    new(big.Int).Set(value),
		data:     common.CopyBytes(req.Data),
		nonce:    nonce,
		gasPrice: gasPrice,
		gasLimit: gasLimit,
	}, nil
}

func (b *builder) gasPrice(ctx context.Context, policy Policy) (*big.Int, error) {
	if policy.GasPriceGwei != nil {
		return amount.GweiToWei(*policy.GasPriceGwei), nil
	}

	return b.client.GasPrice(ctx)
}

// WithMargin returns ceil(estimate * (100 + percent) / 100).
func WithMargin(estimate uint64, percent uint64) uint64 {
	const hundred = 100

	n := new(big.Int).SetUint64(estimate)
	n.Mul(n, new(big.Int).SetUint64(hundred+percent))
	n.Add(n, big.NewInt(hundred-1))
	n.Div(n, big.NewInt(hundred))

	if !n.IsUint64() {
		return ^uint64(0)
	}

	return n.Uint64()
}
