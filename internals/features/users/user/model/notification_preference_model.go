package model

import "time"

const DefaultInactiveThresholdDays = 14

// Preferensi notifikasi per user. Tidak ada baris = semua notifikasi aktif.
type NotificationPreferenceModel struct {
	UserID                string    `gorm:"type:varchar(64);primaryKey;column:user_id" json:"userId"`
	NoteAdded             bool      `gorm:"not null;column:note_added" json:"noteAdded"`
	NoteUpdated           bool      `gorm:"not null;column:note_updated" json:"noteUpdated"`
	AttendanceRecorded    bool      `gorm:"not null;column:attendance_recorded" json:"attendanceRecorded"`
	BirthdayReminder      bool      `gorm:"not null;column:birthday_reminder" json:"birthdayReminder"`
	BirthdayNotifyMorning bool      `gorm:"not null;column:birthday_notify_morning" json:"birthdayNotifyMorning"`
	InactiveStudent       bool      `gorm:"not null;column:inactive_student" json:"inactiveStudent"`
	InactiveThresholdDays int       `gorm:"not null;column:inactive_threshold_days" json:"inactiveThresholdDays"`
	NewUserRegistered     bool      `gorm:"not null;column:new_user_registered" json:"newUserRegistered"`
	UpdatedAt             time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (NotificationPreferenceModel) TableName() string {
	return "notification_preferences"
}

func (p NotificationPreferenceModel) ThresholdDays() int {
	if p.InactiveThresholdDays <= 0 {
		return DefaultInactiveThresholdDays
	}
	return p.InactiveThresholdDays
}
