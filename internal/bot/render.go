package bot

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github/chapool/chat-wallet/internal/i18n"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/flow"
)

var prompts = map[flow.Stage]string{
	flow.StageAwaitSymbol:      "prompt_symbol",
	flow.StageAwaitDestination: "prompt_destination",
	flow.StageAwaitAmount:      "prompt_amount",
	flow.StageAwaitMessage:     "prompt_message",
	flow.StageAwaitThreeLines:  "prompt_verify",
}

func (h *Handler) renderFlow(u Update, reply flow.Reply) []string {
	switch reply.Outcome {
	case flow.OutcomeNoFlow:
		return nil
	case flow.OutcomeAwaiting:
		if reply.Flow == flow.KindSendToken && reply.Stage == flow.StageAwaitAmount {
			return []string{h.t(u, "prompt_token_amount", i18n.Data{"Symbol": reply.Symbol})}
		}
		return []string{h.t(u, prompts[reply.Stage], nil)}
	case flow.OutcomeCancelled:
		return []string{h.t(u, "cancelled", nil)}
	case flow.OutcomeAborted:
		return []string{h.renderAborted(u, reply)}
	case flow.OutcomeFailed:
		return []string{h.renderFailed(u, reply)}
	case flow.OutcomeDone:
		return []string{h.renderDone(u, reply)}
	}
	return nil
}

func (h *Handler) renderDone(u Update, reply flow.Reply) string {
	switch reply.Flow {
	case flow.KindSendNative:
		return h.t(u, "sent", i18n.Data{"Amount": reply.Amount, "To": reply.To.Hex(), "TxHash": reply.TxHash.Hex()})
	case flow.KindSendToken:
		return h.t(u, "token_sent", i18n.Data{"Amount": reply.Amount, "Symbol": reply.Symbol, "To": reply.To.Hex(), "TxHash": reply.TxHash.Hex()})
	case flow.KindSign:
		return h.t(u, "signature", i18n.Data{"Signature": hexutil.Encode(reply.Signature)})
	case flow.KindVerify:
		return h.t(u, "verified", i18n.Data{"Verified": reply.Verified, "Recovered": reply.Recovered.Hex()})
	}
	return ""
}

func (h *Handler) renderAborted(u Update, reply flow.Reply) string {
	switch {
	case errors.Is(reply.Err, errs.ErrUnknownToken):
		return h.t(u, "unknown_token", nil)
	case errors.Is(reply.Err, errs.ErrInvalidInput):
		switch reply.Stage {
		case flow.StageAwaitAmount:
			return h.t(u, "invalid_amount", nil)
		case flow.StageAwaitSymbol:
			return h.t(u, "invalid_symbol", nil)
		case flow.StageAwaitThreeLines:
			return h.t(u, "verify_failed", i18n.Data{"Error": reply.Err.Error()})
		case flow.StageAwaitDestination, flow.StageAwaitMessage:
		}
		return h.t(u, "invalid_address", nil)
	}
	return h.renderError(u, reply.Err)
}

func (h *Handler) renderFailed(u Update, reply flow.Reply) string {
	if errors.Is(reply.Err, errs.ErrChainUnavailable) {
		return h.t(u, "chain_unavailable", nil)
	}

	switch reply.Flow {
	case flow.KindSendNative, flow.KindSendToken:
		return h.t(u, "send_failed", i18n.Data{"Error": reply.Err.Error()})
	case flow.KindVerify:
		return h.t(u, "verify_failed", i18n.Data{"Error": reply.Err.Error()})
	case flow.KindSign:
	}
	return h.renderError(u, reply.Err)
}

// renderError renders errors that reached the handler unchanged from the chain or signer.
func (h *Handler) renderError(u Update, err error) string {
	if errors.Is(err, errs.ErrChainUnavailable) {
		return h.t(u, "chain_unavailable", nil)
	}
	return h.t(u, "error_generic", i18n.Data{"Error": err.Error()})
}
