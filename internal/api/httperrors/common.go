package httperrors

import "net/http"

var (
	ErrBadRequestMalformedUpdate = NewHTTPError(http.StatusBadRequest, "MALFORMED_UPDATE", "The update could not be parsed.")
	ErrBadRequestMissingSender   = NewHTTPError(http.StatusBadRequest, "MISSING_SENDER", "chat_id and user_id are required.")
	ErrForbiddenBotToken         = NewHTTPError(http.StatusForbidden, "INVALID_BOT_TOKEN", "The bot token does not match.")
)
