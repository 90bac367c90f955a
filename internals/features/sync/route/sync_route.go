// internals/features/sync/route/sync_route.go
package route

import (
	"refqa_backend/internals/features/sync/controller"
	"refqa_backend/internals/features/sync/service"
	"refqa_backend/internals/middlewares"

	"github.com/gofiber/fiber/v2"
)

// SyncRoutes: router sudah melewati AuthMiddleware.
func SyncRoutes(r fiber.Router, svc *service.SyncService) {
	ctl := controller.NewSyncController(svc)

	g := r.Group("/sync", middlewares.SyncPushRateLimiter())
	g.Post("/", ctl.Push)
	g.Get("/", ctl.Pull)
}
