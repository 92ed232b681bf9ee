package observability

import (
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	passwordPattern = regexp.MustCompile(`"password"\s*:\s*"[^"]*"`)
	tokenPattern    = regexp.MustCompile(`"(token|jwt|fulfillmentToken)"\s*:\s*"[^"]*"`)
)

// RequestLogger logs every request with a correlation id and counts it
// in the telemetry emitter. Credentials in logged bodies are masked.
func RequestLogger(logger *zap.Logger, telemetry *Telemetry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()
		telemetry.RecordRequest(c.Method())

		err := c.Next()

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Bool("authorized", c.Get("Authorization") != ""),
			zap.Duration("response_time", time.Since(start)),
			zap.String("req_body", Sanitize(c.Body())),
			zap.String("res_body", Sanitize(c.Response().Body())),
		}

		switch {
		case status >= 500:
			logger.Error("http request", fields...)
		case status >= 400:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
		return err
	}
}

// Sanitize masks password and token values in a JSON payload before it
// is logged.
func Sanitize(body []byte) string {
	masked := passwordPattern.ReplaceAll(body, []byte(`"password":"*****"`))
	masked = tokenPattern.ReplaceAll(masked, []byte(`"$1":"*****"`))
	return string(masked)
}
