// internals/middlewares/auth/claim_utils.go
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	helper "refqa_backend/internals/helpers"
)

var errUserInactive = errors.New("user inactive")

/* ======== Extractors ======== */

func extractBearerToken(c *fiber.Ctx) (string, error) {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth == "" {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		} else if q := c.Query("token"); q != "" {
			auth = "Bearer " + q
		}
	}
	if auth == "" {
		return "", fmt.Errorf("unauthorized - No token provided")
	}

	// toleransi spasi ganda & case-insensitive
	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", fmt.Errorf("unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", fmt.Errorf("unauthorized - Empty token")
	}
	return tok, nil
}

func validateTokenExpiry(claims jwt.MapClaims, skew time.Duration) error {
	expVal, ok := claims["exp"]
	if !ok {
		return fmt.Errorf("token has no exp")
	}

	var expUnix int64
	switch t := expVal.(type) {
	case float64:
		expUnix = int64(t)
	case int64:
		expUnix = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exp format")
		}
		expUnix = n
	default:
		return fmt.Errorf("invalid exp type")
	}

	now := time.Now().UTC()
	expTime := time.Unix(expUnix, 0).UTC()
	if now.After(expTime.Add(skew)) {
		return fmt.Errorf("token expired at %v", expTime)
	}
	return nil
}

// extractUserID: id client-generated (string bebas, bukan harus UUID).
func extractUserID(claims jwt.MapClaims) (string, error) {
	idRaw, ok := claims["id"]
	if !ok {
		return "", fmt.Errorf("no user id")
	}
	v, ok := idRaw.(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("invalid user id type")
	}
	return strings.TrimSpace(v), nil
}

// ensureUserActive mengembalikan role yang tersimpan.
func ensureUserActive(db *gorm.DB, userID string) (string, error) {
	var user struct {
		IsActive  bool
		IsDeleted bool
		Role      string
	}
	if err := db.Table("users").
		Select("is_active", "is_deleted", "role").
		Where("id = ?", userID).
		Take(&user).Error; err != nil {
		return "", err
	}
	if !user.IsActive || user.IsDeleted {
		return "", errUserInactive
	}
	return user.Role, nil
}

/* ======== Store claims to Locals ======== */

// Role tersimpan di DB menang atas klaim token (role bisa dicabut sebelum token expired).
func storeRoleToLocals(c *fiber.Ctx, claims jwt.MapClaims, storedRole string) {
	role := strings.TrimSpace(storedRole)
	if role == "" {
		role, _ = claims["role"].(string)
	}
	c.Locals(helper.LocUserRole, strings.ToUpper(strings.TrimSpace(role)))
	if userName, ok := claims["user_name"].(string); ok {
		c.Locals("user_name", userName)
	}
}
