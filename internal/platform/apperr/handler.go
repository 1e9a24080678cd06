package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// statusFor maps expected error kinds to HTTP status codes. The core never
// imports net/http outside this boundary file.
func statusFor(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBusiness:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// HTTPErrorHandler renders the taxonomy as JSON responses. Expected kinds keep
// their message; database and unknown errors leak nothing in non-development
// environments.
func HTTPErrorHandler(logger zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *Error
		if errors.As(err, &appErr) {
			status := statusFor(appErr.Kind)
			if status >= 500 {
				logger.Error().Err(appErr.Unwrap()).
					Str("path", c.Request().URL.Path).
					Msg(appErr.Message)
			}
			body := errorBody{Error: appErr.Kind.String(), Message: appErr.Message, Field: appErr.Field}
			if status >= 500 && !dev {
				body.Message = "an unexpected error occurred"
			}
			_ = c.JSON(status, body)
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			msg, ok := httpErr.Message.(string)
			if !ok {
				msg = http.StatusText(httpErr.Code)
			}
			_ = c.JSON(httpErr.Code, errorBody{Error: "http_error", Message: msg})
			return
		}

		logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		msg := "an unexpected error occurred"
		if dev {
			msg = err.Error()
		}
		_ = c.JSON(http.StatusInternalServerError, errorBody{Error: "internal", Message: msg})
	}
}
