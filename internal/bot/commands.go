package bot

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github/chapool/chat-wallet/internal/i18n"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/amount"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/flow"
	"github/chapool/chat-wallet/internal/wallet/token"
)

func help(_ context.Context, h *Handler, req request) []string {
	return []string{h.t(req.update, "help", i18n.Data{"Network": h.network})}
}

func newAccount(ctx context.Context, h *Handler, req request) []string {
	account, err := h.wallet.Account(ctx, req.update.UserID)
	if err != nil {
		req.log.Error().Err(err).Msg("Failed to resolve account")
		return []string{h.renderError(req.update, err)}
	}

	return []string{h.t(req.update, "account_assigned", i18n.Data{"Index": account.Index, "Address": account.Address.Hex()})}
}

func showAddress(ctx context.Context, h *Handler, req request) []string {
	account, err := h.wallet.Account(ctx, req.update.UserID)
	if err != nil {
		req.log.Error().Err(err).Msg("Failed to resolve account")
		return []string{h.renderError(req.update, err)}
	}

	return []string{h.t(req.update, "account_address", i18n.Data{"Address": account.Address.Hex()})}
}

func balance(ctx context.Context, h *Handler, req request) []string {
	var override string
	if len(req.args) > 0 {
		override = req.args[0]
	}

	b, err := h.wallet.Balance(ctx, req.update.UserID, override)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidInput) {
			return []string{h.t(req.update, "invalid_address", nil)}
		}
		return []string{h.renderError(req.update, err)}
	}

	return []string{h.t(req.update, "balance", i18n.Data{"Address": b.Address.Hex(), "Amount": b.Display})}
}

func startFlow(kind flow.Kind) command {
	return func(ctx context.Context, h *Handler, req request) []string {
		return h.renderFlow(req.update, h.flows.Start(ctx, conversation(req.update), kind))
	}
}

func cancel(ctx context.Context, h *Handler, req request) []string {
	reply := h.flows.Cancel(ctx, conversation(req.update))
	if reply.Outcome == flow.OutcomeNoFlow {
		return []string{h.t(req.update, "nothing_to_cancel", nil)}
	}
	return h.renderFlow(req.update, reply)
}

func tokenAdd(ctx context.Context, h *Handler, req request) []string {
	const minArgs = 2
	if len(req.args) < minArgs {
		return []string{h.t(req.update, "token_add_usage", nil)}
	}

	symbol, err := token.NormalizeSymbol(req.args[0])
	if err != nil {
		return []string{h.t(req.update, "invalid_symbol", nil)}
	}

	addr, err := address.ParseAddress(req.args[1])
	if err != nil {
		return []string{h.t(req.update, "invalid_token_address", nil)}
	}

	// decimals that do not parse are stored as unknown and resolved on chain later
	var decimals *uint8
	if len(req.args) > minArgs {
		if d, err := strconv.ParseUint(req.args[2], 10, 8); err == nil {
			v := uint8(d)
			decimals = &v
		}
	}

	d, err := h.wallet.RegisterToken(ctx, req.update.ChatID, symbol, addr, decimals)
	if err != nil {
		req.log.Error().Err(err).Msg("Failed to register token")
		return []string{h.renderError(req.update, err)}
	}

	shown := "auto"
	if d.Decimals != nil {
		shown = strconv.Itoa(int(*d.Decimals))
	}

	return []string{h.t(req.update, "token_added", i18n.Data{"Symbol": d.Symbol, "Address": d.Address.Hex(), "Decimals": shown})}
}

func tokenBalance(ctx context.Context, h *Handler, req request) []string {
	if len(req.args) < 1 {
		return []string{h.t(req.update, "token_balance_usage", nil)}
	}

	b, err := h.wallet.TokenBalance(ctx, req.update.ChatID, req.update.UserID, req.args[0])
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUnknownToken):
			return []string{h.t(req.update, "unknown_token", nil)}
		case errors.Is(err, errs.ErrInvalidInput):
			return []string{h.t(req.update, "invalid_symbol", nil)}
		}
		return []string{h.renderError(req.update, err)}
	}

	return []string{h.t(req.update, "token_balance", i18n.Data{"Symbol": b.Symbol, "Amount": b.Display})}
}

func faucet(ctx context.Context, h *Handler, req request) []string {
	var value *big.Int
	if len(req.args) > 0 {
		parsed, err := amount.Parse(req.args[0], amount.NativeDecimals)
		if err != nil {
			return []string{h.t(req.update, "invalid_amount", nil)}
		}
		value = parsed
	}

	transfer, err := h.wallet.Faucet(ctx, req.update.UserID, value)
	if err != nil {
		if errors.Is(err, errs.ErrFaucetUnconfigured) {
			return []string{h.t(req.update, "faucet_unconfigured", nil)}
		}
		req.log.Warn().Err(err).Msg("Faucet drip failed")
		return []string{h.t(req.update, "faucet_failed", i18n.Data{"Error": err.Error()})}
	}

	return []string{h.t(req.update, "faucet_sent", i18n.Data{"Amount": transfer.Amount, "To": transfer.To.Hex(), "TxHash": transfer.TxHash.Hex()})}
}

func history(ctx context.Context, h *Handler, req request) []string {
	var blocks uint64
	if len(req.args) > 0 {
		n, err := strconv.ParseUint(req.args[0], 10, 64)
		if err != nil || n == 0 {
			return []string{h.t(req.update, "history_usage", nil)}
		}
		blocks = n
	}

	result, err := h.wallet.History(ctx, req.update.UserID, blocks)
	if err != nil {
		req.log.Error().Err(err).Msg("History scan failed")
		return []string{h.renderError(req.update, err)}
	}

	replies := []string{h.t(req.update, "history_scanning", i18n.Data{
		"From":    result.FromBlock,
		"To":      result.ToBlock,
		"Address": result.Address.Hex(),
	})}

	if len(result.Hashes) == 0 {
		return append(replies, h.t(req.update, "history_empty", nil))
	}

	hashes := make([]string, 0, len(result.Hashes))
	for _, hash := range result.Hashes {
		hashes = append(hashes, hash.Hex())
	}
	return append(replies, strings.Join(hashes, "\n"))
}
