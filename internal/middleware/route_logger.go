package middleware

import (
	"time"

	"teamhub-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs each request with duration and trace ID and records it in rec.
func RouteLogger(rec metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := GetTraceID(c)
		if traceID == "" {
			traceID = "no-trace-id"
		}
		start := time.Now()
		log.Debug().Str("trace_id", traceID).Str("method", c.Method()).Str("path", c.Path()).Msg("Entering request")
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusOf(err)
		}
		log.Info().Str("trace_id", traceID).Str("method", c.Method()).Str("path", c.Path()).
			Int("status", status).Int64("ms", elapsed.Milliseconds()).Msg("Exiting request")
		if rec != nil {
			rec.RecordHTTPRequest(c.Method(), status, elapsed)
		}
		return err
	}
}
