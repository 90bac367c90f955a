// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"refqa_backend/internals/configs"
	helper "refqa_backend/internals/helpers"
)

const expirySkew = 30 * time.Second

// AuthMiddleware memverifikasi bearer token (HS256) lalu mengisi
// c.Locals(user_id, userRole). Token diterbitkan di luar service ini.
func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1) Ambil token (header → cookie → ?token= untuk websocket)
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[ERROR] JWT_SECRET kosong")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		// 2) Parse & verifikasi signature; exp dicek manual dengan toleransi skew
		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true, ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		}); err != nil {
			log.Println("[ERROR] Gagal parse token:", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		if err := validateTokenExpiry(claims, expirySkew); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		// 3) user id + user masih aktif
		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}

		role, err := ensureUserActive(db.WithContext(c.UserContext()), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - User not found")
			}
			if errors.Is(err, errUserInactive) {
				return fiber.NewError(fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
			}
			log.Println("[ERROR] ensureUserActive:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}

		c.Locals(helper.LocUserID, userID)
		storeRoleToLocals(c, claims, role)
		return c.Next()
	}
}
