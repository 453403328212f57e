package util_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github/chapool/chat-wallet/internal/util"
)

func TestLogFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("chat_id", "42").Logger()
	ctx := logger.WithContext(context.Background())

	util.LogFromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"chat_id":"42"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestLogFromContextFallsBackToGlobal(t *testing.T) {
	l := util.LogFromContext(context.Background())
	assert.Equal(t, &log.Logger, l)
}

func TestLogFromContextDisabled(t *testing.T) {
	ctx := util.DisableLogger(context.Background(), true)
	l := util.LogFromContext(ctx)
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}
