package constants

import (
	"fmt"
	"strings"
)

const (
	RoleAdmin   = "ADMIN"
	RoleServant = "SERVANT"
	RoleUser    = "USER"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess   = "❌ Hanya admin yang boleh mengakses fitur %s."
	ErrOnlyManagersCanAccess = "❌ Hanya pengurus kelas atau admin yang boleh mengakses fitur %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorManager(feature string) string {
	return fmt.Sprintf(ErrOnlyManagersCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleAdmin,
		RoleServant,
		RoleUser,
	}

	// Role yang boleh menerima reminder terjadwal (ulang tahun, murid tidak aktif)
	ReminderRoles = []string{
		RoleServant,
		RoleAdmin,
	}
)

// IsPrivileged: admin boleh semua, tanpa scope kelas.
func IsPrivileged(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}
