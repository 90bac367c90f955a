// internals/features/sync/service/puller.go
package service

import (
	"context"
	"strings"
	"time"

	attendanceModel "refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	noteModel "refqa_backend/internals/features/notes/model"
	studentModel "refqa_backend/internals/features/students/model"
	"refqa_backend/internals/features/sync/dto"
	userModel "refqa_backend/internals/features/users/user/model"
	helper "refqa_backend/internals/helpers"

	"gorm.io/gorm"
)

// ISOLayout: format timestamp di response (UTC, milidetik).
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// Pull mengembalikan semua row yang berubah setelah since dan terlihat oleh caller.
// serverTimestamp diambil sebelum query pertama dan tidak melewati waktu mulai
// tier yang belum commit, sehingga write yang commit selama pull berjalan
// muncul lagi di pull berikutnya (boleh duplikat, tidak boleh hilang).
func (s *SyncService) Pull(ctx context.Context, who helper.Identity, since time.Time, activeOnly bool) (*dto.PullResponse, error) {
	_, checkpoint := s.inflight.checkpoint(s.now)
	if s.PullOverlap > 0 {
		checkpoint = checkpoint.Add(-s.PullOverlap)
	}
	db := s.DB.WithContext(ctx)

	scoped := !who.IsPrivileged()
	var managed []string
	if scoped {
		ids, err := ManagedClassIDs(ctx, s.DB, who.UserID)
		if err != nil {
			return nil, err
		}
		managed = ids
	}

	changed := func(model any) *gorm.DB {
		q := db.Model(model).Where("updated_at > ?", since.UTC())
		if activeOnly {
			q = q.Where("is_deleted = ?", false)
		}
		return q.Order("updated_at ASC").Order("id ASC")
	}

	out := dto.PullChanges{
		Students:           []studentModel.StudentModel{},
		AttendanceSessions: []attendanceModel.AttendanceSessionModel{},
		Attendance:         []attendanceModel.AttendanceRecordModel{},
		Notes:              []noteModel.NoteModel{},
		Classes:            []classModel.ClassModel{},
		Users:              []userModel.UserModel{},
	}

	// classes
	q := changed(&classModel.ClassModel{})
	if scoped {
		q = q.Where("id IN ?", managed)
	}
	if err := q.Find(&out.Classes).Error; err != nil {
		return nil, err
	}

	// students
	q = changed(&studentModel.StudentModel{})
	if scoped {
		q = q.Where("class_id IN ?", managed)
	}
	if err := q.Find(&out.Students).Error; err != nil {
		return nil, err
	}

	// attendance sessions
	q = changed(&attendanceModel.AttendanceSessionModel{})
	if scoped {
		q = q.Where("class_id IN ?", managed)
	}
	if err := q.Find(&out.AttendanceSessions).Error; err != nil {
		return nil, err
	}

	// attendance records: scope lewat sesi
	q = changed(&attendanceModel.AttendanceRecordModel{})
	if scoped {
		sessions := db.Model(&attendanceModel.AttendanceSessionModel{}).
			Select("id").
			Where("class_id IN ?", managed)
		q = q.Where("session_id IN (?)", sessions)
	}
	if err := q.Find(&out.Attendance).Error; err != nil {
		return nil, err
	}

	// notes: scope lewat murid
	q = changed(&noteModel.NoteModel{})
	if scoped {
		students := db.Model(&studentModel.StudentModel{}).
			Select("id").
			Where("class_id IN ?", managed)
		q = q.Where("student_id IN (?)", students)
	}
	if err := q.Find(&out.Notes).Error; err != nil {
		return nil, err
	}

	// users: diri sendiri + rekan pengelola kelas yang sama
	q = changed(&userModel.UserModel{})
	if scoped {
		coManagers := db.Model(&classModel.ClassManagerModel{}).
			Select("user_id").
			Where("class_id IN ? AND is_deleted = ?", managed, false)
		q = q.Where("(id = ? OR id IN (?))", who.UserID, coManagers)
	}
	if err := q.Find(&out.Users).Error; err != nil {
		return nil, err
	}

	if err := attachManagerNames(db, out.Classes); err != nil {
		return nil, err
	}

	return &dto.PullResponse{
		ServerTimestamp: checkpoint.Format(ISOLayout),
		Changes:         out,
	}, nil
}

type managerNameRow struct {
	ClassID string
	Name    string
}

// attachManagerNames mengisi ManagerNames ("Andi, Budi") dengan satu query.
func attachManagerNames(db *gorm.DB, classes []classModel.ClassModel) error {
	if len(classes) == 0 {
		return nil
	}
	ids := make([]string, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}

	var rows []managerNameRow
	if err := db.Table("class_managers").
		Select("class_managers.class_id AS class_id, users.name AS name").
		Joins("JOIN users ON users.id = class_managers.user_id").
		Where("class_managers.class_id IN ?", ids).
		Where("class_managers.is_deleted = ? AND users.is_deleted = ?", false, false).
		Order("users.name ASC").
		Scan(&rows).Error; err != nil {
		return err
	}

	names := make(map[string][]string, len(classes))
	for _, r := range rows {
		names[r.ClassID] = append(names[r.ClassID], r.Name)
	}
	for i := range classes {
		classes[i].ManagerNames = strings.Join(names[classes[i].ID], ", ")
	}
	return nil
}
