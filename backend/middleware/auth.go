package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/lucentgarden/tradehub/backend/models"
	"github.com/lucentgarden/tradehub/backend/utils"
)

const (
	headerUserID     = "X-User-Id"
	headerUserName   = "X-User-Name"
	headerUserAvatar = "X-User-Avatar"

	identityKey = "identity"
)

// OptionalAuth resolves the caller identity from the trusted gateway
// headers when present. Public endpoints work without one.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := c.Get(headerUserID); id != "" {
			c.Locals(identityKey, &models.Identity{
				ID:        id,
				Name:      c.Get(headerUserName),
				AvatarURL: c.Get(headerUserAvatar),
			})
		}
		return c.Next()
	}
}

// AuthRequired rejects requests that carry no caller identity.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := ExtractIdentity(c)
		if identity == nil {
			slog.Debug("Auth required: no identity header",
				slog.String("path", c.Path()),
				slog.String("ip", utils.GetIPAddress(c)),
			)
			return utils.SendUnauthorized(c, "Sign in required")
		}
		return c.Next()
	}
}

// ExtractIdentity returns the caller identity set by OptionalAuth, or nil.
func ExtractIdentity(c *fiber.Ctx) *models.Identity {
	identity, _ := c.Locals(identityKey).(*models.Identity)
	return identity
}
