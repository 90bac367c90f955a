package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "refqa_backend/internals/helpers"
)

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, "❌ Terlalu banyak permintaan. Silakan coba lagi nanti.")
		},
	})
}

// SyncPushRateLimiter: per user (bukan per IP, banyak device di belakang NAT yang sama).
// Dipasang setelah AuthMiddleware.
func SyncPushRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals(helper.LocUserID).(string); ok && id != "" {
				return "sync:" + id
			}
			return "sync-ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, "❌ Terlalu banyak push sync. Coba lagi sebentar.")
		},
	})
}
