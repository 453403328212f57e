package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/metrics"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/flow"
)

func TestCounters(t *testing.T) {
	s, err := metrics.New()
	require.NoError(t, err)

	s.Submission("native", nil)
	s.Submission("native", errs.New(errs.ErrBroadcastFailed, "nonce too low"))
	s.Submission("token", errors.New("plain"))
	s.FlowOutcome(flow.KindSendNative, flow.OutcomeCancelled)

	expected := `
# HELP chatwallet_submissions_total Transactions handed to the chain, by kind and result.
# TYPE chatwallet_submissions_total counter
chatwallet_submissions_total{kind="native",result="broadcast failed"} 1
chatwallet_submissions_total{kind="native",result="ok"} 1
chatwallet_submissions_total{kind="token",result="error"} 1
# HELP chatwallet_flow_outcomes_total Guided flows that reached a terminal state.
# TYPE chatwallet_flow_outcomes_total counter
chatwallet_flow_outcomes_total{flow="send",outcome="cancelled"} 1
`
	require.NoError(t, testutil.GatherAndCompare(s.Gatherer(), strings.NewReader(expected),
		"chatwallet_submissions_total", "chatwallet_flow_outcomes_total"))
}

func TestHandlerAndMiddleware(t *testing.T) {
	s, err := metrics.New()
	require.NoError(t, err)

	e := echo.New()
	e.Use(s.Middleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/metrics", s.Handler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `chatwallet_http_requests_total{code="200",host="example.com",method="GET",url="/ping"} 1`)
}
