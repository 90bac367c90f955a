package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"refqa_backend/internals/features/users/user/dto"
	"refqa_backend/internals/features/users/user/model"
	helper "refqa_backend/internals/helpers"
)

var validate = validator.New()

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// GET /me/notifications/preferences
func (uc *UserController) GetNotificationPreferences(c *fiber.Ctx) error {
	who, err := helper.GetIdentity(c)
	if err != nil {
		return err
	}
	pref, err := uc.loadPreference(c, who.UserID)
	if err != nil {
		log.Println("[ERROR] load preferensi notifikasi:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil preferensi notifikasi")
	}
	return helper.JsonOK(c, "Preferensi notifikasi", pref)
}

// PUT /me/notifications/preferences
func (uc *UserController) UpdateNotificationPreferences(c *fiber.Ctx) error {
	who, err := helper.GetIdentity(c)
	if err != nil {
		return err
	}
	var req dto.UpdateNotificationPreferenceRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	pref, err := uc.loadPreference(c, who.UserID)
	if err != nil {
		log.Println("[ERROR] load preferensi notifikasi:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil preferensi notifikasi")
	}
	req.Apply(pref)
	pref.UpdatedAt = time.Now().UTC()

	if err := uc.DB.WithContext(c.UserContext()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(pref).Error; err != nil {
		log.Println("[ERROR] simpan preferensi notifikasi:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menyimpan preferensi notifikasi")
	}
	return helper.JsonOK(c, "Preferensi notifikasi disimpan", pref)
}

func (uc *UserController) loadPreference(c *fiber.Ctx, userID string) (*model.NotificationPreferenceModel, error) {
	var pref model.NotificationPreferenceModel
	err := uc.DB.WithContext(c.UserContext()).Where("user_id = ?", userID).Take(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := dto.DefaultNotificationPreference(userID)
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// POST /me/fcm-token
func (uc *UserController) RegisterFcmToken(c *fiber.Ctx) error {
	who, err := helper.GetIdentity(c)
	if err != nil {
		return err
	}
	var req dto.RegisterFcmTokenRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	req.Token = strings.TrimSpace(req.Token)
	if err := validate.Struct(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Token wajib diisi")
	}

	// UpdateColumn: token tidak ikut pull, jadi updated_at tidak perlu naik
	res := uc.DB.WithContext(c.UserContext()).
		Model(&model.UserModel{}).
		Where("id = ?", who.UserID).
		UpdateColumn("fcm_token", req.Token)
	if res.Error != nil {
		log.Println("[ERROR] simpan fcm token:", res.Error)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menyimpan token")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "User tidak ditemukan")
	}
	return helper.JsonOK(c, "Token registered", nil)
}

// POST /admin/users/:id/enable
func (uc *UserController) EnableUser(c *fiber.Ctx) error {
	return uc.setActive(c, true)
}

// POST /admin/users/:id/disable
func (uc *UserController) DisableUser(c *fiber.Ctx) error {
	return uc.setActive(c, false)
}

// setActive menaikkan updated_at supaya perubahan ikut ter-pull device lain.
func (uc *UserController) setActive(c *fiber.Ctx, active bool) error {
	who, err := helper.GetIdentity(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "id wajib diisi")
	}
	if !active && id == who.UserID {
		return helper.JsonError(c, fiber.StatusBadRequest, "Tidak bisa menonaktifkan akun sendiri")
	}

	res := uc.DB.WithContext(c.UserContext()).
		Model(&model.UserModel{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		log.Println("[ERROR] update status user:", res.Error)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengubah status user")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "User tidak ditemukan")
	}
	log.Printf("[SUCCESS] user=%s active=%t oleh admin=%s", id, active, who.UserID)
	return helper.JsonOK(c, "Status user diperbarui", fiber.Map{"id": id, "isActive": active})
}
