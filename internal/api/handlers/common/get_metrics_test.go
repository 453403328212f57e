package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/test"
)

func TestGetMetrics(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/updates", nil, nil)
		require.Equal(t, http.StatusMethodNotAllowed, res.Result().StatusCode)

		res = test.PerformRequest(t, s, "GET", "/metrics", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		body := res.Body.String()
		assert.Contains(t, body, "chatwallet_http_requests_total")
		assert.Contains(t, body, "go_goroutines")
		assert.NotContains(t, body, `url="/metrics"`)
	})
}
