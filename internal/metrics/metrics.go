// Package metrics exposes prometheus counters for submissions, flows and HTTP traffic.
package metrics

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github/chapool/chat-wallet/internal/wallet/errs"
	"github/chapool/chat-wallet/internal/wallet/flow"
)

const namespace = "chatwallet"

const resultOK = "ok"

// Service owns a dedicated registry so tests can create as many as they like.
type Service struct {
	registry *prometheus.Registry

	submissions  *prometheus.CounterVec
	flowOutcomes *prometheus.CounterVec
}

func New() (*Service, error) {
	registry := prometheus.NewRegistry()

	s := &Service{
		registry: registry,
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Transactions handed to the chain, by kind and result.",
			},
			[]string{"kind", "result"},
		),
		flowOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flow_outcomes_total",
				Help:      "Guided flows that reached a terminal state.",
			},
			[]string{"flow", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{
		s.submissions,
		s.flowOutcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return s, nil
}

// Submission counts a submission. Failures are labelled with their error kind.
func (s *Service) Submission(kind string, err error) {
	result := resultOK
	if err != nil {
		result = string(errs.KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	s.submissions.WithLabelValues(kind, result).Inc()
}

func (s *Service) FlowOutcome(kind flow.Kind, outcome flow.Outcome) {
	s.flowOutcomes.WithLabelValues(string(kind), string(outcome)).Inc()
}

// Middleware records HTTP request metrics in the service registry.
func (s *Service) Middleware() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  namespace,
		Subsystem:  "http",
		Registerer: s.registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	})
}

// Handler serves the registry in the prometheus text format.
func (s *Service) Handler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.registry,
	})
}

func (s *Service) Gatherer() prometheus.Gatherer {
	return s.registry
}
