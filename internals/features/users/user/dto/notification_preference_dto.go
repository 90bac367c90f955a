package dto

import (
	uModel "refqa_backend/internals/features/users/user/model"
)

/* =======================================================
   REQUEST DTOs
   ======================================================= */

// UpdateNotificationPreferenceRequest: partial update, field nil = tidak diubah
type UpdateNotificationPreferenceRequest struct {
	NoteAdded             *bool `json:"noteAdded"`
	NoteUpdated           *bool `json:"noteUpdated"`
	AttendanceRecorded    *bool `json:"attendanceRecorded"`
	BirthdayReminder      *bool `json:"birthdayReminder"`
	BirthdayNotifyMorning *bool `json:"birthdayNotifyMorning"`
	InactiveStudent       *bool `json:"inactiveStudent"`
	InactiveThresholdDays *int  `json:"inactiveThresholdDays" validate:"omitempty,min=1,max=365"`
	NewUserRegistered     *bool `json:"newUserRegistered"`
}

func (r *UpdateNotificationPreferenceRequest) Apply(p *uModel.NotificationPreferenceModel) {
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&p.NoteAdded, r.NoteAdded)
	setBool(&p.NoteUpdated, r.NoteUpdated)
	setBool(&p.AttendanceRecorded, r.AttendanceRecorded)
	setBool(&p.BirthdayReminder, r.BirthdayReminder)
	setBool(&p.BirthdayNotifyMorning, r.BirthdayNotifyMorning)
	setBool(&p.InactiveStudent, r.InactiveStudent)
	setBool(&p.NewUserRegistered, r.NewUserRegistered)
	if r.InactiveThresholdDays != nil {
		p.InactiveThresholdDays = *r.InactiveThresholdDays
	}
}

// DefaultNotificationPreference: dipakai kalau user belum punya baris, semua aktif.
func DefaultNotificationPreference(userID string) uModel.NotificationPreferenceModel {
	return uModel.NotificationPreferenceModel{
		UserID:                userID,
		NoteAdded:             true,
		NoteUpdated:           true,
		AttendanceRecorded:    true,
		BirthdayReminder:      true,
		BirthdayNotifyMorning: true,
		InactiveStudent:       true,
		InactiveThresholdDays: uModel.DefaultInactiveThresholdDays,
		NewUserRegistered:     true,
	}
}

// RegisterFcmTokenRequest: token push dari device
type RegisterFcmTokenRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}
