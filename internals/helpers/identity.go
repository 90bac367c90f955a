package helper

import (
	"strings"

	"refqa_backend/internals/constants"

	"github.com/gofiber/fiber/v2"
)

// Locals keys yang diisi AuthMiddleware
const (
	LocUserID   = "user_id"
	LocUserRole = "userRole"
)

// Identity adalah pemanggil yang sudah diautentikasi ({userId, role}).
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsPrivileged() bool {
	return constants.IsPrivileged(i.Role)
}

// GetIdentity membaca user_id & role dari c.Locals.
// 401 kalau belum login.
func GetIdentity(c *fiber.Ctx) (Identity, error) {
	userID := localString(c, LocUserID)
	if userID == "" {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "User belum login")
	}
	return Identity{
		UserID: userID,
		Role:   strings.ToUpper(localString(c, LocUserRole)),
	}, nil
}

func localString(c *fiber.Ctx, key string) string {
	switch t := c.Locals(key).(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case fmtStringer:
		return strings.TrimSpace(t.String())
	default:
		return ""
	}
}

type fmtStringer interface{ String() string }
