package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/test"
)

func TestGetHealthy(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		// liveness does not depend on the chain
		test.FakeChainOf(t, s).Connected = false

		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		assert.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Equal(t, "Healthy.", res.Body.String())
		assert.Zero(t, test.FakeChainOf(t, s).CallCount("IsConnected"))
	})
}
