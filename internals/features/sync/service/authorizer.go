package service

import (
	"context"
	"fmt"
	"sort"

	attendanceModel "refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	studentModel "refqa_backend/internals/features/students/model"
	helper "refqa_backend/internals/helpers"

	"gorm.io/gorm"
)

// BatchIndex: id → parent class yang dideklarasikan di batch yang sama.
// Dibangun sekali per request, supaya murid/sesi yang dibuat offline
// bisa langsung dipakai note/absensi di batch yang sama.
type BatchIndex struct {
	StudentClass map[string]string
	SessionClass map[string]string
}

func NewBatchIndex(changes []Change) *BatchIndex {
	idx := &BatchIndex{
		StudentClass: map[string]string{},
		SessionClass: map[string]string{},
	}
	for _, ch := range changes {
		if ch.IsDelete() {
			continue
		}
		classID := ch.PayloadString("classId")
		if classID == "" {
			continue
		}
		switch ch.Kind {
		case KindStudent:
			idx.StudentClass[ch.EntityID] = classID
		case KindAttendanceSession:
			idx.SessionClass[ch.EntityID] = classID
		}
	}
	return idx
}

// AuthScope hasil pre-fetch otorisasi untuk satu request push.
type AuthScope struct {
	Privileged bool

	managed      map[string]struct{}
	studentClass map[string]string // murid tersimpan → kelas
	sessionClass map[string]string // sesi tersimpan → kelas
	noteClass    map[string]string // note tersimpan → kelas (lewat murid)
	recordClass  map[string]string // absensi tersimpan → kelas (lewat sesi)
	batch        *BatchIndex
}

type idClassRow struct {
	ID      string
	ClassID string
}

// ManagedClassIDs: semua kelas aktif yang dipegang user.
func ManagedClassIDs(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&classModel.ClassManagerModel{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Distinct().
		Pluck("class_id", &ids).Error
	return ids, err
}

// PrefetchAuth me-resolve semua data otorisasi dengan query bulk (bukan per change).
// Admin dilewati seluruhnya.
func PrefetchAuth(ctx context.Context, db *gorm.DB, who helper.Identity, changes []Change) (*AuthScope, error) {
	if who.IsPrivileged() {
		return &AuthScope{Privileged: true}, nil
	}

	scope := &AuthScope{
		managed:      map[string]struct{}{},
		studentClass: map[string]string{},
		sessionClass: map[string]string{},
		noteClass:    map[string]string{},
		recordClass:  map[string]string{},
		batch:        NewBatchIndex(changes),
	}

	managed, err := ManagedClassIDs(ctx, db, who.UserID)
	if err != nil {
		return nil, fmt.Errorf("load managed classes: %w", err)
	}
	for _, id := range managed {
		scope.managed[id] = struct{}{}
	}

	studentIDs, sessionIDs, noteIDs, recordIDs := idSet{}, idSet{}, idSet{}, idSet{}
	for _, ch := range changes {
		switch ch.Kind {
		case KindStudent:
			studentIDs.add(ch.EntityID)
		case KindAttendanceSession:
			sessionIDs.add(ch.EntityID)
		case KindNote:
			noteIDs.add(ch.EntityID)
			studentIDs.add(ch.PayloadString("studentId"))
		case KindAttendanceRecord:
			recordIDs.add(ch.EntityID)
			sessionIDs.add(ch.PayloadString("sessionId"))
		}
	}

	q := db.WithContext(ctx)

	if len(studentIDs) > 0 {
		var rows []idClassRow
		if err := q.Model(&studentModel.StudentModel{}).
			Select("id, class_id").
			Where("id IN ?", studentIDs.list()).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("resolve student classes: %w", err)
		}
		fill(scope.studentClass, rows)
	}

	if len(sessionIDs) > 0 {
		var rows []idClassRow
		if err := q.Model(&attendanceModel.AttendanceSessionModel{}).
			Select("id, class_id").
			Where("id IN ?", sessionIDs.list()).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("resolve session classes: %w", err)
		}
		fill(scope.sessionClass, rows)
	}

	if len(noteIDs) > 0 {
		var rows []idClassRow
		if err := q.Table("notes").
			Select("notes.id AS id, students.class_id AS class_id").
			Joins("JOIN students ON students.id = notes.student_id").
			Where("notes.id IN ?", noteIDs.list()).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("resolve note classes: %w", err)
		}
		fill(scope.noteClass, rows)
	}

	if len(recordIDs) > 0 {
		var rows []idClassRow
		if err := q.Table("attendance_records").
			Select("attendance_records.id AS id, attendance_sessions.class_id AS class_id").
			Joins("JOIN attendance_sessions ON attendance_sessions.id = attendance_records.session_id").
			Where("attendance_records.id IN ?", recordIDs.list()).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("resolve attendance classes: %w", err)
		}
		fill(scope.recordClass, rows)
	}

	return scope, nil
}

// Authorize dievaluasi saat apply, hanya memakai map hasil pre-fetch.
func (s *AuthScope) Authorize(ch Change) error {
	if ch.Kind == KindUnknown {
		return unknownType(ch)
	}
	if s.Privileged {
		return nil
	}

	switch ch.Kind {
	case KindClass, KindUser, KindClassManager:
		return forbidden("%s changes require an administrator", ch.Kind)

	case KindStudent:
		return s.requireManaged(ch, ch.PayloadString("classId"), s.studentClass[ch.EntityID])

	case KindAttendanceSession:
		return s.requireManaged(ch, ch.PayloadString("classId"), s.sessionClass[ch.EntityID])

	case KindNote:
		candidates := []string{s.noteClass[ch.EntityID]}
		if studentID := ch.PayloadString("studentId"); studentID != "" {
			candidates = append(candidates, s.batch.StudentClass[studentID], s.studentClass[studentID])
		}
		return s.requireManaged(ch, candidates...)

	case KindAttendanceRecord:
		candidates := []string{s.recordClass[ch.EntityID]}
		if sessionID := ch.PayloadString("sessionId"); sessionID != "" {
			candidates = append(candidates, s.batch.SessionClass[sessionID], s.sessionClass[sessionID])
		}
		return s.requireManaged(ch, candidates...)

	default:
		return unknownType(ch)
	}
}

// requireManaged: minimal satu kelas pemilik diketahui, dan semuanya dipegang pemanggil.
// Jadi baris tidak bisa dipindah masuk/keluar kelas yang bukan miliknya.
func (s *AuthScope) requireManaged(ch Change, candidates ...string) error {
	known := 0
	for _, classID := range candidates {
		if classID == "" {
			continue
		}
		known++
		if _, ok := s.managed[classID]; !ok {
			return forbidden("%s %s belongs to class %s which you do not manage", ch.Kind, ch.EntityID, classID)
		}
	}
	if known == 0 {
		return forbidden("cannot resolve owning class for %s %s", ch.Kind, ch.EntityID)
	}
	return nil
}

type idSet map[string]struct{}

func (s idSet) add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

func (s idSet) list() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func fill(dst map[string]string, rows []idClassRow) {
	for _, r := range rows {
		dst[r.ID] = r.ClassID
	}
}
