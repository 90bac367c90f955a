// internals/features/attendance/model/attendance_session_model.go
package model

import (
	"time"

	syncModel "refqa_backend/internals/features/sync/model"
)

// Satu sesi absensi per kelas per tanggal (di antara baris yang belum dihapus).
type AttendanceSessionModel struct {
	syncModel.Syncable

	ClassID     string    `gorm:"type:varchar(64);not null;column:class_id;uniqueIndex:uq_attendance_sessions_class_date,where:is_deleted = false" json:"classId"`
	Date        time.Time `gorm:"type:date;not null;column:date;uniqueIndex:uq_attendance_sessions_class_date,where:is_deleted = false" json:"date"`
	CreatedByID *string   `gorm:"type:varchar(64);column:created_by_id" json:"createdById"`
}

func (AttendanceSessionModel) TableName() string {
	return "attendance_sessions"
}
