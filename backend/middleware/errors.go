package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lucentgarden/tradehub/backend/utils"
	"github.com/lucentgarden/tradehub/tradehub/trading"
)

// CustomErrorHandler maps trading errors onto the API error taxonomy and
// everything else onto a 500 without leaking internals.
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	switch trading.KindOf(err) {
	case trading.KindValidation:
		return utils.SendBadRequest(c, err.Error(), nil)
	case trading.KindNotFound:
		return utils.SendNotFound(c, err.Error())
	case trading.KindAuthorization:
		return utils.SendForbidden(c, err.Error())
	case trading.KindConflict:
		return utils.SendConflict(c, err.Error(), nil)
	}

	if e, ok := err.(*fiber.Error); ok {
		return utils.SendError(c, e.Code, http.StatusText(e.Code), e.Message, nil)
	}
	return utils.SendInternalServerError(c, "Internal Server Error")
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		return c.Next()
	}
}
