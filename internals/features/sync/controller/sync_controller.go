// internals/features/sync/controller/sync_controller.go
package controller

import (
	"fmt"
	"log"
	"strings"
	"time"

	"refqa_backend/internals/features/sync/dto"
	"refqa_backend/internals/features/sync/service"
	helper "refqa_backend/internals/helpers"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type SyncController struct {
	Service *service.SyncService
}

func NewSyncController(svc *service.SyncService) *SyncController {
	return &SyncController{Service: svc}
}

// POST /sync
// Body: {"changes":[...]}. Item yang rusak gagal sendiri, batch tetap jalan.
func (ctl *SyncController) Push(c *fiber.Ctx) error {
	who, err := helper.GetIdentity(c)
	if err != nil {
		return err
	}

	var req dto.PushRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil || req.Changes == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid changes format")
	}

	raw := *req.Changes
	changes := make([]service.Change, 0, len(raw))
	var malformed []dto.FailedChange
	for i, item := range raw {
		ch, ferr := decodeChange(item)
		if ferr != nil {
			if ferr.UUID == "" {
				ferr.UUID = fmt.Sprintf("#%d", i)
			}
			malformed = append(malformed, *ferr)
			continue
		}
		changes = append(changes, ch)
	}

	start := time.Now()
	resp := ctl.Service.Push(c.UserContext(), who, changes)
	if len(malformed) > 0 {
		resp.FailedUUIDs = append(malformed, resp.FailedUUIDs...)
	}

	log.Printf("[SYNC] push user=%s total=%d processed=%d failed=%d dur=%s",
		who.UserID, len(raw), len(resp.ProcessedUUIDs), len(resp.FailedUUIDs), time.Since(start))
	return c.Status(fiber.StatusOK).JSON(resp)
}

// decodeChange: item yang tidak lolos decode/validasi jadi FailedChange (MalformedChange).
func decodeChange(item []byte) (service.Change, *dto.FailedChange) {
	var r dto.ChangeRequest
	if err := sonic.Unmarshal(item, &r); err != nil {
		var probe struct {
			UUID string `json:"uuid"`
		}
		_ = sonic.Unmarshal(item, &probe)
		return service.Change{}, &dto.FailedChange{
			UUID:  strings.TrimSpace(probe.UUID),
			Error: fmt.Sprintf("%s: %v", service.ErrMalformedChange, err),
		}
	}
	r.Normalize()
	if err := validate.Struct(&r); err != nil {
		return service.Change{}, &dto.FailedChange{
			UUID:  r.UUID,
			Error: fmt.Sprintf("%s: %s", service.ErrMalformedChange, describeValidation(err)),
		}
	}
	return service.FromRequest(r), nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// GET /sync?since=ISO8601&activeOnly=true
func (ctl *SyncController) Pull(c *fiber.Ctx) error {
	who, err := helper.GetIdentity(c)
	if err != nil {
		return err
	}

	since := time.Unix(0, 0).UTC()
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		t, ok := service.ParseTimestamp(raw)
		if !ok {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid since timestamp")
		}
		since = t
	}
	activeOnly := c.QueryBool("activeOnly", false)

	resp, err := ctl.Service.Pull(c.UserContext(), who, since, activeOnly)
	if err != nil {
		log.Printf("[SYNC] pull gagal user=%s: %v", who.UserID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to pull changes")
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
