package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/util"
)

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// getReadyHandler reports ready once all components are up and the chain answers.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if !s.Ready() || !s.ChainReady(ctx) {
			util.LogFromContext(ctx).Debug().Msg("Readiness probe failed")
			return c.String(521, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
