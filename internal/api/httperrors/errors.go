// Package httperrors renders API failures as JSON problem documents.
package httperrors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/chat-wallet/internal/util"
)

// HTTPError is a public error returned by API handlers.
type HTTPError struct {
	Code  int    `json:"status"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{Code: code, Type: errorType, Title: title}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
}

// HTTPErrorHandler is installed as echo's error handler.
// Plain echo errors keep their status, anything else becomes a 500 without details.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *HTTPError
	switch e := err.(type) { //nolint:errorlint // only the outermost error is rendered
	case *HTTPError:
		httpErr = e
	case *echo.HTTPError:
		httpErr = NewHTTPError(e.Code, "generic", http.StatusText(e.Code))
		if msg, ok := e.Message.(string); ok {
			httpErr.Title = msg
		}
	default:
		util.LogFromContext(c.Request().Context()).Error().Err(err).Msg("Unhandled error in handler")
		httpErr = NewHTTPError(http.StatusInternalServerError, "generic", http.StatusText(http.StatusInternalServerError))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(httpErr.Code)
	} else {
		err = c.JSON(httpErr.Code, httpErr)
	}
	if err != nil {
		util.LogFromContext(c.Request().Context()).Error().Err(err).Msg("Failed to write error response")
	}
}
