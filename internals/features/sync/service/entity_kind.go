package service

import (
	"strings"

	attendanceModel "refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	noteModel "refqa_backend/internals/features/notes/model"
	studentModel "refqa_backend/internals/features/students/model"
	userModel "refqa_backend/internals/features/users/user/model"
)

// EntityKind adalah himpunan tertutup entity yang ikut sync.
type EntityKind int

const (
	KindUnknown EntityKind = iota
	KindClass
	KindUser
	KindStudent
	KindClassManager
	KindAttendanceSession
	KindAttendanceRecord
	KindNote
)

// TierUnknown selalu diproses paling akhir dan selalu gagal.
const TierUnknown = 99

// Alias token → token kanonik.
var entityAliases = map[string]string{
	"ATTENDANCE": "ATTENDANCE_RECORD",
}

var kindByToken = map[string]EntityKind{
	"CLASS":              KindClass,
	"USER":               KindUser,
	"STUDENT":            KindStudent,
	"CLASS_MANAGER":      KindClassManager,
	"ATTENDANCE_SESSION": KindAttendanceSession,
	"ATTENDANCE_RECORD":  KindAttendanceRecord,
	"NOTE":               KindNote,
}

// ParseEntityKind: case-insensitive, alias sudah dinormalisasi.
func ParseEntityKind(token string) EntityKind {
	t := strings.ToUpper(strings.TrimSpace(token))
	if canon, ok := entityAliases[t]; ok {
		t = canon
	}
	return kindByToken[t]
}

func (k EntityKind) String() string {
	switch k {
	case KindClass:
		return "CLASS"
	case KindUser:
		return "USER"
	case KindStudent:
		return "STUDENT"
	case KindClassManager:
		return "CLASS_MANAGER"
	case KindAttendanceSession:
		return "ATTENDANCE_SESSION"
	case KindAttendanceRecord:
		return "ATTENDANCE_RECORD"
	case KindNote:
		return "NOTE"
	default:
		return "UNKNOWN"
	}
}

// Tier: parent sebelum child. CLASS_MANAGER cuma butuh CLASS & USER.
func (k EntityKind) Tier() int {
	switch k {
	case KindClass:
		return 1
	case KindUser:
		return 2
	case KindStudent, KindClassManager:
		return 3
	case KindAttendanceSession:
		return 4
	case KindAttendanceRecord, KindNote:
		return 5
	default:
		return TierUnknown
	}
}

// Kolom yang boleh diisi dari payload client (camelCase → kolom).
var sharedColumns = map[string]string{
	"isDeleted": "is_deleted",
	"deletedAt": "deleted_at",
}

// entityTable mengikat kind ke model GORM + whitelist kolomnya.
type entityTable struct {
	model   func() any
	columns map[string]string
}

func (t entityTable) column(key string) (string, bool) {
	if col, ok := t.columns[key]; ok {
		return col, true
	}
	col, ok := sharedColumns[key]
	return col, ok
}

func (k EntityKind) table() (entityTable, bool) {
	switch k {
	case KindClass:
		return entityTable{
			model:   func() any { return &classModel.ClassModel{} },
			columns: map[string]string{"name": "name", "grade": "grade"},
		}, true
	case KindUser:
		return entityTable{
			model: func() any { return &userModel.UserModel{} },
			columns: map[string]string{
				"name": "name", "email": "email", "phone": "phone",
				"role": "role", "isActive": "is_active",
			},
		}, true
	case KindStudent:
		return entityTable{
			model: func() any { return &studentModel.StudentModel{} },
			columns: map[string]string{
				"classId": "class_id", "name": "name", "phone": "phone",
				"address": "address", "birthdate": "birthdate",
			},
		}, true
	case KindClassManager:
		return entityTable{
			model:   func() any { return &classModel.ClassManagerModel{} },
			columns: map[string]string{"classId": "class_id", "userId": "user_id"},
		}, true
	case KindAttendanceSession:
		return entityTable{
			model: func() any { return &attendanceModel.AttendanceSessionModel{} },
			columns: map[string]string{
				"classId": "class_id", "date": "date", "createdById": "created_by_id",
			},
		}, true
	case KindAttendanceRecord:
		return entityTable{
			model: func() any { return &attendanceModel.AttendanceRecordModel{} },
			columns: map[string]string{
				"sessionId": "session_id", "studentId": "student_id", "status": "status",
			},
		}, true
	case KindNote:
		return entityTable{
			model: func() any { return &noteModel.NoteModel{} },
			columns: map[string]string{
				"studentId": "student_id", "authorId": "author_id", "content": "content",
			},
		}, true
	default:
		return entityTable{}, false
	}
}
