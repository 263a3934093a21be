package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/internal/middleware"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(model.Success(status, data))
}

// fail renders err into the envelope with the status its kind maps to.
func fail(c *fiber.Ctx, err error) error {
	status := apperror.HTTPStatus(err)
	if apperror.KindOf(err) == apperror.KindInternal {
		log.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return c.Status(status).JSON(model.Failure(status, err.Error()))
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.RequestIDKey).(string)
	return id
}

// Helper to read the acting user set by middleware.IdentifyActor
func actor(c *fiber.Ctx) string {
	email := c.Locals(middleware.ActorKey)
	if email == nil {
		return "system"
	}
	return email.(string)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("invalid " + name)
	}
	return id, nil
}

// queryInt64 returns nil when the parameter is absent.
func queryInt64(c *fiber.Ctx, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.Validation(name + " must be an integer")
	}
	return &v, nil
}

// queryTime accepts RFC3339 or a plain date.
func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.Validation(name + " must be a date (YYYY-MM-DD) or RFC3339 timestamp")
}

func paging(c *fiber.Ctx) model.Paging {
	return model.Paging{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", model.DefaultPageLimit),
	}
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("invalid JSON body")
	}
	return nil
}
