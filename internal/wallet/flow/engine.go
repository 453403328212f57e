package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

type session struct {
	mu    sync.Mutex
	conv  Conversation
	kind  Kind
	step  int
	done  bool
	state state
}

type engine struct {
	submitter Submitter
	tokens    TokenResolver
	recorder  Recorder

	// mu orders replacement and removal of sessions
	mu       sync.Mutex
	sessions *cache.Cache
}

// NewEngine creates a flow Engine
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewEngine(submitter Submitter, tokens TokenResolver, opts Options) Engine {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &engine{
		submitter: submitter,
		tokens:    tokens,
		recorder:  opts.Recorder,
		sessions:  cache.New(ttl, 2*ttl),
	}
}

// IsCancel reports whether text asks to cancel the live flow.
func IsCancel(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	return text == "/cancel" || text == "cancel"
}

func sessionKey(conv Conversation) string {
	return fmt.Sprintf("%d:%d", conv.ChatID, conv.UserID)
}

func (e *engine) Start(ctx context.Context, conv Conversation, kind Kind) Reply {
	steps, known := flows[kind]
	if !known {
		return Reply{Flow: kind, Outcome: OutcomeAborted, Err: errs.Newf(errs.ErrInvalidInput, "unknown flow %q", kind)}
	}

	s := &session{conv: conv, kind: kind}

	e.mu.Lock()
	if old := e.lookup(conv); old != nil {
		util.LogFromContext(ctx).Debug().Str("flow", string(old.kind)).Str("replaced_by", string(kind)).Msg("Discarding live flow")
	}
	e.sessions.SetDefault(sessionKey(conv), s)
	e.mu.Unlock()

	return Reply{Flow: kind, Outcome: OutcomeAwaiting, Stage: steps[0].stage}
}

func (e *engine) Handle(ctx context.Context, conv Conversation, text string) Reply {
	s := e.lookup(conv)
	if s == nil {
		return Reply{Outcome: OutcomeNoFlow}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !e.live(s) {
		return Reply{Outcome: OutcomeNoFlow}
	}

	if IsCancel(text) {
		return e.finish(ctx, s, Reply{Flow: s.kind, Outcome: OutcomeCancelled})
	}

	steps := flows[s.kind]
	current := steps[s.step]

	result := current.handle(ctx, e, s, text)
	switch result.tag {
	case tagInvalid, tagAborted:
		util.LogFromContext(ctx).Debug().Err(result.err).Str("flow", string(s.kind)).Str("stage", string(current.stage)).Msg("Flow aborted")
		return e.finish(ctx, s, Reply{Flow: s.kind, Outcome: OutcomeAborted, Stage: current.stage, Err: result.err})
	case tagOK:
	}

	s.step++
	if s.step < len(steps) {
		e.touch(s)
		return Reply{Flow: s.kind, Outcome: OutcomeAwaiting, Stage: steps[s.step].stage, Symbol: s.state.symbol}
	}

	return e.finish(ctx, s, e.submit(ctx, s))
}

func (e *engine) Cancel(ctx context.Context, conv Conversation) Reply {
	s := e.lookup(conv)
	if s == nil {
		return Reply{Outcome: OutcomeNoFlow}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !e.live(s) {
		return Reply{Outcome: OutcomeNoFlow}
	}
	return e.finish(ctx, s, Reply{Flow: s.kind, Outcome: OutcomeCancelled})
}

func (e *engine) Active(conv Conversation) (Kind, Stage, bool) {
	s := e.lookup(conv)
	if s == nil {
		return "", "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !e.live(s) {
		return "", "", false
	}
	return s.kind, flows[s.kind][s.step].stage, true
}

func (e *engine) lookup(conv Conversation) *session {
	v, found := e.sessions.Get(sessionKey(conv))
	if !found {
		return nil
	}
	return v.(*session) //nolint:forcetypeassert // only sessions are stored
}

// live reports whether s is unfinished and still the conversation's flow.
// Callers hold s.mu.
func (e *engine) live(s *session) bool {
	return !s.done && e.lookup(s.conv) == s
}

// touch refreshes the expiry of s unless a newer flow already replaced it.
func (e *engine) touch(s *session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lookup(s.conv) == s {
		e.sessions.SetDefault(sessionKey(s.conv), s)
	}
}

// finish marks s terminal and drops it unless a newer flow already replaced it.
// Callers hold s.mu.
func (e *engine) finish(ctx context.Context, s *session, reply Reply) Reply {
	s.done = true
	s.state = state{}

	e.mu.Lock()
	if cur := e.lookup(s.conv); cur == s {
		e.sessions.Delete(sessionKey(s.conv))
	}
	e.mu.Unlock()

	util.LogFromContext(ctx).Info().Str("flow", string(reply.Flow)).Str("outcome", string(reply.Outcome)).Msg("Flow finished")

	if e.recorder != nil {
		e.recorder.FlowOutcome(reply.Flow, reply.Outcome)
	}
	return reply
}
