// Package flow collects multi-turn chat input for sends, signing and verification.
package flow

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/chat-wallet/internal/wallet/token"
)

type Kind string

const (
	KindSendNative Kind = "send"
	KindSendToken  Kind = "token_send"
	KindSign       Kind = "sign"
	KindVerify     Kind = "verify"
)

type Stage string

const (
	StageAwaitSymbol      Stage = "await_symbol"
	StageAwaitDestination Stage = "await_destination"
	StageAwaitAmount      Stage = "await_amount"
	StageAwaitMessage     Stage = "await_message"
	StageAwaitThreeLines  Stage = "await_three_lines"
)

type Outcome string

const (
	// OutcomeAwaiting means the flow is live and Reply.Stage names the next input.
	OutcomeAwaiting Outcome = "awaiting"
	OutcomeDone     Outcome = "done"
	// OutcomeCancelled discards the flow without side effects.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeAborted ends the flow on rejected input. Reply.Err holds the reason.
	OutcomeAborted Outcome = "aborted"
	// OutcomeFailed ends the flow because submission failed. Reply.Err is the chain or signer error.
	OutcomeFailed Outcome = "failed"
	// OutcomeNoFlow is returned when the conversation has no live flow.
	OutcomeNoFlow Outcome = "no_flow"
)

// Conversation identifies one user in one chat. Each has at most one live flow.
type Conversation struct {
	ChatID int64
	UserID int64
}

// Reply describes what happened to a turn.
type Reply struct {
	Flow    Kind
	Outcome Outcome
	Stage   Stage
	Err     error

	Symbol string
	To     common.Address
	Amount string

	TxHash    common.Hash
	Signature []byte

	Verified  bool
	Recovered common.Address
}

// Submitter performs the side effects a completed flow asks for.
type Submitter interface {
	SendNative(ctx context.Context, userID int64, to common.Address, value *big.Int) (common.Hash, error)
	SendToken(ctx context.Context, userID int64, d *token.Descriptor, to common.Address, value *big.Int) (common.Hash, error)
	SignMessage(ctx context.Context, userID int64, text string) ([]byte, error)
	VerifyMessage(ctx context.Context, addr common.Address, text string, signature string) (bool, common.Address, error)
}

// TokenResolver is satisfied by token.View.
type TokenResolver interface {
	Resolve(ctx context.Context, chatID int64, symbol string) (*token.Descriptor, error)
	Decimals(ctx context.Context, d *token.Descriptor) uint8
}

// Recorder observes terminal outcomes.
type Recorder interface {
	FlowOutcome(kind Kind, outcome Outcome)
}

// Engine runs guided flows, one per conversation.
type Engine interface {
	// Start begins kind for conv. A live flow of conv is discarded first.
	Start(ctx context.Context, conv Conversation, kind Kind) Reply

	// Handle feeds one message to the live flow of conv.
	// "/cancel" and "cancel" end any flow with OutcomeCancelled.
	Handle(ctx context.Context, conv Conversation, text string) Reply

	// Cancel discards the live flow of conv.
	Cancel(ctx context.Context, conv Conversation) Reply

	// Active reports the live flow of conv and the stage it waits in.
	Active(conv Conversation) (Kind, Stage, bool)
}

type Options struct {
	// TTL drops flows idle for longer. Zero means DefaultTTL.
	TTL      time.Duration
	Recorder Recorder
}

const DefaultTTL = 10 * time.Minute
