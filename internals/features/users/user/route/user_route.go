package route

import (
	"refqa_backend/internals/constants"
	userController "refqa_backend/internals/features/users/user/controller"
	authMiddleware "refqa_backend/internals/middlewares/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserRoutes: router sudah melewati AuthMiddleware.
func UserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := userController.NewUserController(db)

	// ✅ Diri sendiri
	me := r.Group("/me")
	me.Get("/notifications/preferences", ctl.GetNotificationPreferences)
	me.Put("/notifications/preferences", ctl.UpdateNotificationPreferences)
	me.Post("/fcm-token", ctl.RegisterFcmToken)

	// 🔒 Admin
	admin := r.Group("/admin/users",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("kelola user"), constants.RoleAdmin))
	admin.Post("/:id/enable", ctl.EnableUser)
	admin.Post("/:id/disable", ctl.DisableUser)
}
