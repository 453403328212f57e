package updates

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/api/httperrors"
	"github/chapool/chat-wallet/internal/bot"
	"github/chapool/chat-wallet/internal/util"
)

const HeaderBotToken = "X-Bot-Token"

type UpdateResponse struct {
	Replies []string `json:"replies"`
}

// PostUpdateRoute receives one chat message from the messenger bridge and answers with the replies to send.
func PostUpdateRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Bot.POST("/updates", postUpdateHandler(s))
}

func postUpdateHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := s.Config.Echo.BotToken; token != "" {
			got := c.Request().Header.Get(HeaderBotToken)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return httperrors.ErrForbiddenBotToken
			}
		}

		var update bot.Update
		if err := c.Bind(&update); err != nil {
			return httperrors.ErrBadRequestMalformedUpdate
		}
		if update.ChatID == 0 || update.UserID == 0 {
			return httperrors.ErrBadRequestMissingSender
		}

		ctx := c.Request().Context()
		log := util.LogFromContext(ctx).With().
			Int64("chat_id", update.ChatID).
			Int64("user_id", update.UserID).
			Logger()
		ctx = log.WithContext(ctx)

		replies := s.Bot.Handle(ctx, update)
		if replies == nil {
			replies = []string{}
		}

		return c.JSON(http.StatusOK, UpdateResponse{Replies: replies})
	}
}
