package flow

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/amount"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/token"
)

// state accumulates input until submission.
type state struct {
	symbol   string
	token    *token.Descriptor
	to       common.Address
	value    *big.Int
	amount   string
	message  string
	verifyAt common.Address
	sigText  string
}

type step struct {
	stage  Stage
	handle func(ctx context.Context, e *engine, s *session, text string) stageResult
}

var flows = map[Kind][]step{
	KindSendNative: {
		{stage: StageAwaitDestination, handle: collectDestination},
		{stage: StageAwaitAmount, handle: collectNativeAmount},
	},
	KindSendToken: {
		{stage: StageAwaitSymbol, handle: collectSymbol},
		{stage: StageAwaitDestination, handle: collectDestination},
		{stage: StageAwaitAmount, handle: collectTokenAmount},
	},
	KindSign: {
		{stage: StageAwaitMessage, handle: collectMessage},
	},
	KindVerify: {
		{stage: StageAwaitThreeLines, handle: collectThreeLines},
	},
}

func collectDestination(_ context.Context, _ *engine, s *session, text string) stageResult {
	to, err := address.ParseAddress(strings.TrimSpace(text))
	if err != nil {
		return invalid(err)
	}
	s.state.to = to
	return ok()
}

func collectNativeAmount(_ context.Context, _ *engine, s *session, text string) stageResult {
	value, err := amount.Parse(text, amount.NativeDecimals)
	if err != nil {
		return invalid(err)
	}
	s.state.value = value
	s.state.amount = strings.TrimSpace(text)
	return ok()
}

func collectSymbol(ctx context.Context, e *engine, s *session, text string) stageResult {
	symbol, err := token.NormalizeSymbol(text)
	if err != nil {
		return invalid(err)
	}

	d, err := e.tokens.Resolve(ctx, s.conv.ChatID, symbol)
	if err != nil {
		return aborted(err)
	}

	s.state.symbol = d.Symbol
	s.state.token = d
	return ok()
}

func collectTokenAmount(ctx context.Context, e *engine, s *session, text string) stageResult {
	// validate before resolving decimals so malformed input costs no calls
	if _, err := amount.Parse(text, 0); err != nil {
		return invalid(err)
	}

	decimals := e.tokens.Decimals(ctx, s.state.token)
	value, err := amount.Parse(text, decimals)
	if err != nil {
		return invalid(err)
	}
	s.state.value = value
	s.state.amount = strings.TrimSpace(text)
	return ok()
}

func collectMessage(_ context.Context, _ *engine, s *session, text string) stageResult {
	s.state.message = text
	return ok()
}

// collectThreeLines reads address, message and signature from the first three lines.
func collectThreeLines(_ context.Context, _ *engine, s *session, text string) stageResult {
	const wantLines = 3

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) < wantLines {
		return invalid(errs.Newf(errs.ErrInvalidInput, "expected %d lines, got %d", wantLines, len(lines)))
	}

	addr, err := address.ParseAddress(strings.TrimSpace(lines[0]))
	if err != nil {
		return invalid(err)
	}

	s.state.verifyAt = addr
	s.state.message = strings.TrimSpace(lines[1])
	s.state.sigText = strings.TrimSpace(lines[2])
	return ok()
}

// submit runs the side effect of a fully collected flow.
func (e *engine) submit(ctx context.Context, s *session) Reply {
	reply := Reply{Flow: s.kind, Outcome: OutcomeDone, Symbol: s.state.symbol, To: s.state.to, Amount: s.state.amount}

	var err error
	switch s.kind {
	case KindSendNative:
		reply.TxHash, err = e.submitter.SendNative(ctx, s.conv.UserID, s.state.to, s.state.value)
	case KindSendToken:
		reply.TxHash, err = e.submitter.SendToken(ctx, s.conv.UserID, s.state.token, s.state.to, s.state.value)
	case KindSign:
		reply.Signature, err = e.submitter.SignMessage(ctx, s.conv.UserID, s.state.message)
	case KindVerify:
		reply.To = s.state.verifyAt
		reply.Verified, reply.Recovered, err = e.submitter.VerifyMessage(ctx, s.state.verifyAt, s.state.message, s.state.sigText)
	}

	if err != nil {
		reply.Outcome = OutcomeFailed
		reply.Err = err
	}
	return reply
}
