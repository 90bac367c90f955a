package middlewares

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	helper "refqa_backend/internals/helpers"
)

// RecoveryMiddleware: panic jadi error 500 (format JsonError lewat ErrorHandler),
// stack dicatat bersama request id dan user supaya bisa dicocokkan dengan log akses.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace:  true,
		StackTraceHandler: logPanic,
	})
}

func logPanic(c *fiber.Ctx, e interface{}) {
	reqID, _ := c.Locals("reqid").(string)
	userID, _ := c.Locals(helper.LocUserID).(string)
	if userID == "" {
		userID = "-"
	}
	log.Printf("[PANIC] reqid=%s user=%s %s %s: %s\n%s",
		reqID, userID, c.Method(), c.Path(), fmt.Sprint(e), debug.Stack())
}
