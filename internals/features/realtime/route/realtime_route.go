// internals/features/realtime/route/realtime_route.go
package route

import (
	"refqa_backend/internals/features/realtime/controller"
	"refqa_backend/internals/features/realtime/hub"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RealtimeRoutes: router sudah melewati AuthMiddleware.
func RealtimeRoutes(r fiber.Router, h *hub.Hub) {
	ctl := controller.NewRealtimeController(h)
	r.Get("/ws", controller.UpgradeGuard(), websocket.New(ctl.Handle))
}
