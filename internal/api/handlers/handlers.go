package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/api/handlers/common"
	"github/chapool/chat-wallet/internal/api/handlers/updates"
)

func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		updates.PostUpdateRoute(s),
		common.GetHealthyRoute(s),
		common.GetMetricsRoute(s),
		common.GetReadyRoute(s),
	}
}
