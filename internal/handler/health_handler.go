package handler

import (
	"context"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health checks DB and, when configured, Redis connectivity.
func Health(db *gorm.DB, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
		}

		status := fiber.StatusOK
		if dbStatus == "error" || redisStatus == "error" {
			status = fiber.StatusServiceUnavailable
		}

		data := fiber.Map{"db": dbStatus, "redis": redisStatus}
		if status != fiber.StatusOK {
			resp := model.Failure(status, "dependency unavailable")
			resp.Data = data
			return c.Status(status).JSON(resp)
		}
		return respond(c, status, data)
	}
}
