package middlewares

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/google/uuid"

	"refqa_backend/internals/middlewares/logger"
)

// SetupMiddlewares: urutan penting, recover paling luar.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestIDMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelDefault,
		Next:  websocket.IsWebSocketUpgrade,
	})) // gzip
	app.Use(etag.New(etag.Config{Next: websocket.IsWebSocketUpgrade})) // 304 caching
	app.Use(GlobalRateLimiter())
}

// RequestIDMiddleware: pakai X-Request-ID dari client kalau ada.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals("reqid", id)
		return c.Next()
	}
}
