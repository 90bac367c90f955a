// internals/features/attendance/route/attendance_route.go
package route

import (
	"refqa_backend/internals/features/attendance/controller"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func AttendanceRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewAttendanceExportController(db)
	r.Get("/classes/:class_id/attendance/export", ctl.Export)
}
