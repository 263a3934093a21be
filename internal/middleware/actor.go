package middleware

import (
	"errors"
	"strings"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/repository"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	// ActorHeader is set by the gateway after it authenticated the caller.
	ActorHeader = "X-User-Email"
	ActorKey    = "user_email"
)

// IdentifyActor resolves the forwarded user email and stores it in Locals for
// audit columns. Unknown emails are rejected; a missing header means "system".
func IdentifyActor(userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := strings.TrimSpace(c.Get(ActorHeader))
		if email == "" {
			return c.Next()
		}

		user, err := userRepo.FindByEmail(c.UserContext(), email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(model.Failure(fiber.StatusUnauthorized, "unknown user "+email))
		}
		if err != nil {
			return err
		}

		c.Locals(ActorKey, user.Email)
		return c.Next()
	}
}
