package router

import (
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/api/handlers"
	"github/chapool/chat-wallet/internal/api/httperrors"
	"github/chapool/chat-wallet/internal/api/middleware"
)

// Init creates echo, installs the middleware chain and attaches all routes.
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler

	s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())

	s.Echo.Use(echoMiddleware.Recover())
	s.Echo.Use(echoMiddleware.RequestID())
	s.Echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Level: s.Config.Logger.RequestLevel,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/-/")
		},
	}))
	s.Echo.Use(s.Metrics.Middleware())

	s.Router = &api.Router{
		Routes:     nil,
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
		APIV1Bot:   s.Echo.Group("/api/v1"),
	}

	handlers.AttachAllRoutes(s)

	for _, r := range s.Router.Routes {
		log.Debug().Str("method", r.Method).Str("path", r.Path).Msg("Route attached")
	}
}
