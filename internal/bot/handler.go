package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github/chapool/chat-wallet/internal/i18n"
	"github/chapool/chat-wallet/internal/util"
	"github/chapool/chat-wallet/internal/wallet"
	"github/chapool/chat-wallet/internal/wallet/flow"
)

type request struct {
	update Update
	args   []string
	log    zerolog.Logger
}

type command func(ctx context.Context, h *Handler, req request) []string

var commands = map[string]command{
	"start":         help,
	"help":          help,
	"new":           newAccount,
	"address":       showAddress,
	"balance":       balance,
	"send":          startFlow(flow.KindSendNative),
	"token_send":    startFlow(flow.KindSendToken),
	"sign":          startFlow(flow.KindSign),
	"verify":        startFlow(flow.KindVerify),
	"cancel":        cancel,
	"token_add":     tokenAdd,
	"token_balance": tokenBalance,
	"faucet":        faucet,
	"history":       history,
}

type Handler struct {
	wallet    wallet.Service
	flows     flow.Engine
	i18n      *i18n.Service
	whitelist map[int64]struct{}
	network   string
}

func NewHandler(walletService wallet.Service, flows flow.Engine, translator *i18n.Service, opts Options) *Handler {
	whitelist := make(map[int64]struct{}, len(opts.Whitelist))
	for _, id := range opts.Whitelist {
		whitelist[id] = struct{}{}
	}

	return &Handler{
		wallet:    walletService,
		flows:     flows,
		i18n:      translator,
		whitelist: whitelist,
		network:   opts.Network,
	}
}

// Allowed reports whether userID passes the whitelist.
func (h *Handler) Allowed(userID int64) bool {
	if len(h.whitelist) == 0 {
		return true
	}
	_, ok := h.whitelist[userID]
	return ok
}

// Handle processes one update and returns the replies in order.
// Text that is not a command feeds the conversation's live flow, if any.
func (h *Handler) Handle(ctx context.Context, u Update) []string {
	log := util.LogFromContext(ctx).With().
		Int64("chat_id", u.ChatID).
		Int64("user_id", u.UserID).
		Logger()

	if !h.Allowed(u.UserID) {
		log.Warn().Msg("Rejected user outside whitelist")
		return []string{h.t(u, "unauthorized", nil)}
	}

	name, args, isCommand := parseCommand(u.Text)
	if !isCommand {
		reply := h.flows.Handle(ctx, conversation(u), u.Text)
		return h.renderFlow(u, reply)
	}

	cmd, ok := commands[name]
	if !ok {
		return []string{h.t(u, "unknown_command", nil)}
	}

	log = log.With().Str("command", name).Logger()
	log.Debug().Msg("Handling command")

	return cmd(log.WithContext(ctx), h, request{update: u, args: args, log: log})
}

// parseCommand splits "/name@bot arg1 arg2" into its lowercased name and arguments.
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	return strings.ToLower(name), fields[1:], true
}

func conversation(u Update) flow.Conversation {
	return flow.Conversation{ChatID: u.ChatID, UserID: u.UserID}
}

func (h *Handler) t(u Update, key string, data i18n.Data) string {
	if data == nil {
		return h.i18n.Translate(key, u.LanguageCode)
	}
	return h.i18n.Translate(key, u.LanguageCode, data)
}
