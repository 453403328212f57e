package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/chat-wallet/internal/api"
)

// GetHealthyRoute answers liveness probes. It only fails while the server is half initialized.
func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(521, "Not healthy.")
		}

		return c.String(http.StatusOK, "Healthy.")
	}
}
