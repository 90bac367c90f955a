package middlewares

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	helper "refqa_backend/internals/helpers"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryMiddleware_PanicBecomesJSON500(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	app.Use(RecoveryMiddleware())
	app.Use(RequestIDMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		c.Locals(helper.LocUserID, "u-servant")
		panic("nil map")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, sonic.Unmarshal(raw, &body))
	assert.False(t, body.Success)
	assert.Equal(t, "nil map", body.Message)

	out := buf.String()
	assert.Contains(t, out, "[PANIC] reqid=req-42 user=u-servant GET /boom: nil map")
}
