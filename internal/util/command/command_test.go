package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/test"
	"github/chapool/chat-wallet/internal/util/command"
	"github/chapool/chat-wallet/internal/wallet/errs"
)

func TestWithServerChainUnavailable(t *testing.T) {
	cfg := test.DefaultTestConfig()
	// nothing listens on the discard port
	cfg.Chain.RPCURLs = []string{"http://127.0.0.1:9"}

	called := false
	err := command.WithServer(t.Context(), cfg, func(_ context.Context, _ *api.Server) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrChainUnavailable), err.Error())
	assert.False(t, called)
}

func TestWithServerUnknownRegistry(t *testing.T) {
	cfg := test.DefaultTestConfig()
	cfg.Registry.Backend = "etcd"

	err := command.WithServer(t.Context(), cfg, func(_ context.Context, _ *api.Server) error {
		t.Fatal("must not be called")
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown registry backend "etcd"`)
}

func TestNewSubcommandGroup(t *testing.T) {
	a := &cobra.Command{Use: "a"}
	b := &cobra.Command{Use: "b"}

	group := command.NewSubcommandGroup("keystore", a, b)
	assert.Equal(t, "keystore", group.Use)
	assert.Len(t, group.Commands(), 2)
}
