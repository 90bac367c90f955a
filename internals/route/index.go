// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	attendanceRoute "refqa_backend/internals/features/attendance/route"
	"refqa_backend/internals/features/realtime/hub"
	realtimeRoute "refqa_backend/internals/features/realtime/route"
	syncRoute "refqa_backend/internals/features/sync/route"
	syncService "refqa_backend/internals/features/sync/service"
	userRoute "refqa_backend/internals/features/users/user/route"
	authMiddleware "refqa_backend/internals/middlewares/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var startTime time.Time

// Deps: komponen yang sudah dibangun di main.go.
type Deps struct {
	DB   *gorm.DB
	Sync *syncService.SyncService
	Hub  *hub.Hub
}

func SetupRoutes(app *fiber.App, deps Deps) {
	startTime = time.Now()

	// ===================== PUBLIC =====================
	BaseRoutes(app, deps.DB)

	// ===================== PRIVATE (JWT) =====================
	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/", authMiddleware.AuthMiddleware(deps.DB))

	log.Println("[INFO] Mounting Sync routes...")
	syncRoute.SyncRoutes(private, deps.Sync)

	log.Println("[INFO] Mounting Realtime routes...")
	realtimeRoute.RealtimeRoutes(private, deps.Hub)

	log.Println("[INFO] Mounting User routes...")
	userRoute.UserRoutes(private, deps.DB)

	log.Println("[INFO] Mounting Attendance routes...")
	attendanceRoute.AttendanceRoutes(private, deps.DB)
}
