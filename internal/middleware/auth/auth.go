package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/pkg/config"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

// Middleware gates the admin route namespace on the presence of the session
// cookie carrying the configured sentinel value. Anything else is sent to
// the login entry point.
func Middleware(cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Cookies(cfg.CookieName) != cfg.CookieValue {
			logger.Debug("Unauthenticated request redirected",
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return c.Redirect(cfg.LoginPath, fiber.StatusSeeOther)
		}
		return c.Next()
	}
}
