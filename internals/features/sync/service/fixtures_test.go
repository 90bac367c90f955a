package service

import (
	"context"
	"sync"
	"testing"
	"time"

	attendanceModel "refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	noteModel "refqa_backend/internals/features/notes/model"
	notifService "refqa_backend/internals/features/notifications/service"
	"refqa_backend/internals/features/realtime/hub"
	studentModel "refqa_backend/internals/features/students/model"
	"refqa_backend/internals/features/sync/dto"
	syncModel "refqa_backend/internals/features/sync/model"
	userModel "refqa_backend/internals/features/users/user/model"
	helper "refqa_backend/internals/helpers"
	"refqa_backend/internals/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin   = helper.Identity{UserID: "u-admin", Role: "ADMIN"}
	servant = helper.Identity{UserID: "u-servant", Role: "SERVANT"}
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]notifService.Event
	full    bool
}

func (f *fakePublisher) Publish(events []notifService.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.batches = append(f.batches, events)
	return true
}

func (f *fakePublisher) events() []notifService.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notifService.Event
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

type fakeEmitter struct {
	signals chan hub.Signal
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{signals: make(chan hub.Signal, 8)}
}

func (f *fakeEmitter) Emit(_ context.Context, sig hub.Signal) error {
	f.signals <- sig
	return nil
}

type fixture struct {
	db   *gorm.DB
	svc  *SyncService
	pub  *fakePublisher
	emit *fakeEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	pub := &fakePublisher{}
	emit := newFakeEmitter()
	return &fixture{
		db:   db,
		svc:  NewSyncService(db, pub, emit, ""),
		pub:  pub,
		emit: emit,
	}
}

// scenario: kelas A dipegang servant, kelas B tidak.
func (f *fixture) seedScenario(t *testing.T) {
	t.Helper()
	f.seedUser(t, admin.UserID, "Admin", "ADMIN")
	f.seedUser(t, servant.UserID, "Budi", "SERVANT")
	f.seedUser(t, "u-other", "Andi", "SERVANT")
	f.seedClass(t, "class-a", "Class A")
	f.seedClass(t, "class-b", "Class B")
	f.seedManager(t, "class-a", servant.UserID)
	f.seedManager(t, "class-a", "u-other")
	f.seedManager(t, "class-b", "u-other")
	f.seedStudent(t, "stu-a", "class-a", "Alice")
	f.seedStudent(t, "stu-b", "class-b", "Bob")
	f.seedSession(t, "ses-a", "class-a", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	f.seedSession(t, "ses-b", "class-b", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
}

func (f *fixture) seedUser(t *testing.T, id, name, role string) {
	t.Helper()
	require.NoError(t, f.db.Create(&userModel.UserModel{
		Syncable: syncModel.Syncable{ID: id}, Name: name, Role: role, IsActive: true,
	}).Error)
}

func (f *fixture) seedClass(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.db.Create(&classModel.ClassModel{
		Syncable: syncModel.Syncable{ID: id}, Name: name,
	}).Error)
}

func (f *fixture) seedManager(t *testing.T, classID, userID string) {
	t.Helper()
	require.NoError(t, f.db.Create(&classModel.ClassManagerModel{
		Syncable: syncModel.Syncable{ID: classID + ":" + userID}, ClassID: classID, UserID: userID,
	}).Error)
}

func (f *fixture) seedStudent(t *testing.T, id, classID, name string) {
	t.Helper()
	require.NoError(t, f.db.Create(&studentModel.StudentModel{
		Syncable: syncModel.Syncable{ID: id}, ClassID: classID, Name: name,
	}).Error)
}

func (f *fixture) seedSession(t *testing.T, id, classID string, date time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&attendanceModel.AttendanceSessionModel{
		Syncable: syncModel.Syncable{ID: id}, ClassID: classID, Date: date,
	}).Error)
}

func (f *fixture) seedNote(t *testing.T, id, studentID, content string) {
	t.Helper()
	require.NoError(t, f.db.Create(&noteModel.NoteModel{
		Syncable: syncModel.Syncable{ID: id}, StudentID: studentID, Content: content,
	}).Error)
}

func change(uuid, entityType, entityID, op string, payload map[string]any) Change {
	return FromRequest(dto.ChangeRequest{
		UUID:       uuid,
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  op,
		Payload:    payload,
	})
}

func failedUUIDs(resp dto.PushResponse) []string {
	out := make([]string, 0, len(resp.FailedUUIDs))
	for _, f := range resp.FailedUUIDs {
		out = append(out, f.UUID)
	}
	return out
}

func failureFor(t *testing.T, resp dto.PushResponse, uuid string) string {
	t.Helper()
	for _, f := range resp.FailedUUIDs {
		if f.UUID == uuid {
			return f.Error
		}
	}
	t.Fatalf("uuid %s tidak ada di failedUuids: %+v", uuid, resp.FailedUUIDs)
	return ""
}
