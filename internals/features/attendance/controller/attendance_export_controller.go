// internals/features/attendance/controller/attendance_export_controller.go
package controller

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"refqa_backend/internals/constants"
	"refqa_backend/internals/features/attendance/service"
	helper "refqa_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttendanceExportController struct {
	DB *gorm.DB
}

func NewAttendanceExportController(db *gorm.DB) *AttendanceExportController {
	return &AttendanceExportController{DB: db}
}

// GET /classes/:class_id/attendance/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (ctl *AttendanceExportController) Export(c *fiber.Ctx) error {
	who, err := helper.GetIdentity(c)
	if err != nil {
		return err
	}
	classID := strings.TrimSpace(c.Params("class_id"))
	if classID == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "class_id wajib diisi")
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if from != nil && to != nil && to.Before(*from) {
		return helper.JsonError(c, fiber.StatusBadRequest, "Parameter 'to' harus >= 'from'")
	}

	ctx := c.UserContext()
	class, err := service.EnsureCanManage(ctx, ctl.DB, who, classID)
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Kelas tidak ditemukan")
	case errors.Is(err, service.ErrNotManager):
		return helper.JsonError(c, fiber.StatusForbidden, constants.RoleErrorManager("export absensi"))
	case err != nil:
		log.Printf("[ERROR] cek pengelola kelas %s: %v", classID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal memeriksa akses kelas")
	}

	sheet, err := service.LoadAttendanceSheet(ctx, ctl.DB, class, from, to)
	if err != nil {
		log.Printf("[ERROR] load absensi kelas %s: %v", classID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data absensi")
	}
	buf, err := sheet.Workbook()
	if err != nil {
		log.Printf("[ERROR] build xlsx kelas %s: %v", classID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membuat file export")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="attendance-%s.xlsx"`, classID))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

func parseDateQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(service.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("Parameter '%s' harus berformat YYYY-MM-DD", key)
	}
	return &t, nil
}
