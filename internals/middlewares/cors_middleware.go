// middlewares/cors.go

package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"refqa_backend/internals/configs"
)

// CorsMiddleware: origin dari CORS_ALLOW_ORIGINS (pisah koma).
func CorsMiddleware() fiber.Handler {
	origins := strings.TrimSpace(configs.CorsAllowOrigins)
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		ExposeHeaders:    "X-Request-ID, Content-Disposition",
		AllowCredentials: origins != "*",
	})
}
