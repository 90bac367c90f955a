package model

import (
	"strings"

	syncModel "refqa_backend/internals/features/sync/model"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// Satu record per murid per sesi.
type AttendanceRecordModel struct {
	syncModel.Syncable

	SessionID string           `gorm:"type:varchar(64);not null;column:session_id;uniqueIndex:uq_attendance_records_session_student,where:is_deleted = false" json:"sessionId"`
	StudentID string           `gorm:"type:varchar(64);not null;column:student_id;uniqueIndex:uq_attendance_records_session_student,where:is_deleted = false;index:idx_attendance_records_student" json:"studentId"`
	Status    AttendanceStatus `gorm:"type:varchar(16);not null;default:'PRESENT';column:status" json:"status"`
}

func (AttendanceRecordModel) TableName() string {
	return "attendance_records"
}

// Attended: hadir, termasuk terlambat.
func (s AttendanceStatus) Attended() bool {
	return s == AttendancePresent || s == AttendanceLate
}

// ParseAttendanceStatus: case-insensitive, hanya empat status yang dikenal.
func ParseAttendanceStatus(raw string) (AttendanceStatus, bool) {
	st := AttendanceStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch st {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return st, true
	}
	return "", false
}
