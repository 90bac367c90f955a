// internals/features/realtime/controller/realtime_controller.go
package controller

import (
	"log"

	"refqa_backend/internals/features/realtime/hub"
	helper "refqa_backend/internals/helpers"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type RealtimeController struct {
	Hub *hub.Hub
}

func NewRealtimeController(h *hub.Hub) *RealtimeController {
	return &RealtimeController{Hub: h}
}

// UpgradeGuard menolak request biasa ke endpoint websocket.
func UpgradeGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handle: koneksi hanya menerima; pesan dari client diabaikan.
func (ctl *RealtimeController) Handle(c *websocket.Conn) {
	userID, _ := c.Locals(helper.LocUserID).(string)
	if userID == "" {
		_ = c.Close()
		return
	}
	client := ctl.Hub.Register(userID, c)
	defer ctl.Hub.Unregister(client)

	log.Printf("[REALTIME] connect user=%s total=%d", userID, ctl.Hub.Count())
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	log.Printf("[REALTIME] disconnect user=%s", userID)
}
