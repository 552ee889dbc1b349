package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HTTPErrorHandler renders errors as {"detail": "..."}. Errors that are not
// *echo.HTTPError become a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			detail = m
		case error:
			detail = m.Error()
		default:
			detail = http.StatusText(code)
		}
	} else {
		slog.Error("unhandled error", "path", c.Path(), "error", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, &ErrorResponse{Detail: detail})
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}
