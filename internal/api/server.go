package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github/chapool/chat-wallet/internal/bot"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/i18n"
	"github/chapool/chat-wallet/internal/metrics"
	"github/chapool/chat-wallet/internal/registry"
	"github/chapool/chat-wallet/internal/wallet"
	"github/chapool/chat-wallet/internal/wallet/address"
	"github/chapool/chat-wallet/internal/wallet/chain"
	"github/chapool/chat-wallet/internal/wallet/flow"
	"github/chapool/chat-wallet/internal/wallet/seed"
	"github/chapool/chat-wallet/internal/wallet/token"
)

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1Bot   *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with InitNewServer, which creates the components in the right order.
// Echo and Router are set afterwards by router.Init(s).
type Server struct {
	Echo   *echo.Echo
	Router *Router

	Config      config.Server
	Registry    registry.Registry
	Chain       chain.Client
	SeedManager seed.Manager
	Deriver     address.Deriver
	Tokens      token.View
	Wallet      wallet.Service
	Flow        flow.Engine
	Bot         *bot.Handler
	I18n        *i18n.Service
	Metrics     *metrics.Service
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

// Ready reports whether every component is set and the seed is loaded.
// It does not touch the chain, see ChainReady.
func (s *Server) Ready() bool {
	if err := s.initialized(); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}

	return true
}

// ChainReady reports whether the chain answers.
func (s *Server) ChainReady(ctx context.Context) bool {
	return s.Chain != nil && s.Chain.IsConnected(ctx)
}

func (s *Server) initialized() error {
	switch {
	case s.Echo == nil, s.Router == nil:
		return errors.New("router is not initialized")
	case s.Registry == nil:
		return errors.New("registry is not initialized")
	case s.Chain == nil:
		return errors.New("chain client is not initialized")
	case s.SeedManager == nil || !s.SeedManager.IsInitialized():
		return errors.New("seed is not loaded")
	case s.Deriver == nil, s.Tokens == nil, s.Wallet == nil, s.Flow == nil, s.Bot == nil:
		return errors.New("wallet is not initialized")
	case s.I18n == nil:
		return errors.New("i18n is not initialized")
	case s.Metrics == nil:
		return errors.New("metrics are not initialized")
	}
	return nil
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Registry != nil {
		log.Debug().Msg("Closing registry")

		if err := s.Registry.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close registry")
			errs = append(errs, err)
		}
	}

	if closer, ok := s.Chain.(interface{ Close() }); ok {
		log.Debug().Msg("Closing chain client")
		closer.Close()
	}

	if s.SeedManager != nil {
		s.SeedManager.Clear()
	}

	return errs
}
