package middleware

import (
	"errors"

	"teamhub-backend/internal/pkg/apperrors"
	"teamhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StatusOf is the response status err will produce.
func StatusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperrors.HTTPStatus(err)
}

// ErrorHandler is the global error handler. Typed errors are answered with
// their user message; everything else gets a generic message. The cause is
// only logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusOf(err)
	message := apperrors.UserMessage(err)
	details := map[string]interface{}{}

	var fe *fiber.Error
	var ae *apperrors.Error
	switch {
	case errors.As(err, &fe):
		message = fe.Message
	case errors.As(err, &ae):
		details["code"] = ae.Kind
	}

	var event *zerolog.Event
	if code >= fiber.StatusInternalServerError {
		event = log.Error()
	} else {
		event = log.Debug()
	}
	event.Err(err).
		Str("trace_id", GetTraceID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("request failed")

	return response.Error(c, message, code, details)
}
