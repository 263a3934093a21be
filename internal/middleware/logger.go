package middleware

import (
	"errors"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequestIDKey is where fiber's requestid middleware stores the id.
const RequestIDKey = "requestid"

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

// RequestLogger logs each request with method, path, status, latency, and request_id.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}

// ErrorHandler renders anything a handler returned (or a recovered panic) into the
// response envelope. Internal details are logged, not sent.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		log.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")
	}

	return c.Status(status).JSON(model.Failure(status, message))
}
