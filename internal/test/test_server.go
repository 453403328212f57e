package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/api/router"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/registry"
	"github/chapool/chat-wallet/internal/storage"
)

// DefaultTestConfig returns a config for in-memory test servers.
func DefaultTestConfig() config.Server {
	return config.Server{
		Echo:   config.EchoServer{ListenAddress: ":0"},
		Logger: config.LoggerServer{Level: zerolog.DebugLevel, RequestLevel: zerolog.DebugLevel},
		Chain: config.Chain{
			RPCURLs:          []string{"http://127.0.0.1:8545"},
			ChainID:          ChainID,
			GasMarginPercent: 20,
		},
		Wallet:   config.Wallet{Mnemonic: DevMnemonic, SerializeSubmissions: true},
		Faucet:   config.Faucet{DefaultAmount: "0.1"},
		Flow:     config.Flow{TTL: 10 * time.Minute},
		History:  config.History{DefaultBlocks: 100, MaxHits: 20},
		Registry: config.Registry{Backend: string(registry.BackendMemory)},
		I18n:     config.I18n{DefaultLanguage: "en"},
	}
}

// WithTestServer runs closure against a fully wired server backed by a FakeChain
// and an in-memory registry, with the seed loaded from DevMnemonic.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, DefaultTestConfig(), closure)
}

func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServerWithComponents(cfg, registry.NewKVStore(storage.NewMemory()), NewFakeChain())
	require.NoError(t, err)

	require.NoError(t, s.SeedManager.Initialize(cfg.Wallet.Mnemonic, cfg.Wallet.Passphrase))

	router.Init(s)

	t.Cleanup(func() {
		s.Shutdown(context.Background())
	})

	closure(s)
}

// FakeChainOf returns the chain of a server created by WithTestServer.
func FakeChainOf(t *testing.T, s *api.Server) *FakeChain {
	t.Helper()

	fake, ok := s.Chain.(*FakeChain)
	require.True(t, ok, "server chain is not a FakeChain")
	return fake
}

// PerformRequest sends a request through the server's echo instance.
// A non-nil body is encoded as JSON unless it is already an io.Reader.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body any, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header[k] = v
	}
	if body != nil && req.Header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// ParseResponseAndValidate decodes a JSON response into v.
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v any) {
	t.Helper()

	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}
