package service

import (
	"context"
	"testing"
	"time"

	attendanceModel "refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	noteModel "refqa_backend/internals/features/notes/model"
	studentModel "refqa_backend/internals/features/students/model"
	syncModel "refqa_backend/internals/features/sync/model"
	userModel "refqa_backend/internals/features/users/user/model"
	helper "refqa_backend/internals/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(0, 0).UTC()

func (f *fixture) seedRecord(t *testing.T, id, sessionID, studentID string) {
	t.Helper()
	require.NoError(t, f.db.Create(&attendanceModel.AttendanceRecordModel{
		Syncable:  syncModel.Syncable{ID: id},
		SessionID: sessionID,
		StudentID: studentID,
		Status:    attendanceModel.AttendancePresent,
	}).Error)
}

func classIDs(rows []classModel.ClassModel) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func studentIDs(rows []studentModel.StudentModel) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func noteIDs(rows []noteModel.NoteModel) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func userIDs(rows []userModel.UserModel) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestPull_ServantSeesOnlyManagedClasses(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	f.seedNote(t, "note-a", "stu-a", "visible")
	f.seedNote(t, "note-b", "stu-b", "hidden")
	f.seedRecord(t, "rec-a", "ses-a", "stu-a")
	f.seedRecord(t, "rec-b", "ses-b", "stu-b")

	resp, err := f.svc.Pull(context.Background(), servant, epoch, false)
	require.NoError(t, err)
	ch := resp.Changes

	assert.Equal(t, []string{"class-a"}, classIDs(ch.Classes))
	assert.Equal(t, "Andi, Budi", ch.Classes[0].ManagerNames)
	assert.Equal(t, []string{"stu-a"}, studentIDs(ch.Students))
	require.Len(t, ch.AttendanceSessions, 1)
	assert.Equal(t, "ses-a", ch.AttendanceSessions[0].ID)
	require.Len(t, ch.Attendance, 1)
	assert.Equal(t, "rec-a", ch.Attendance[0].ID)
	assert.Equal(t, []string{"note-a"}, noteIDs(ch.Notes))
	assert.ElementsMatch(t, []string{servant.UserID, "u-other"}, userIDs(ch.Users))
}

func TestPull_AdminSeesEverything(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	f.seedNote(t, "note-a", "stu-a", "a")
	f.seedNote(t, "note-b", "stu-b", "b")

	resp, err := f.svc.Pull(context.Background(), admin, epoch, false)
	require.NoError(t, err)
	ch := resp.Changes

	assert.ElementsMatch(t, []string{"class-a", "class-b"}, classIDs(ch.Classes))
	for _, c := range ch.Classes {
		if c.ID == "class-b" {
			assert.Equal(t, "Andi", c.ManagerNames)
		}
	}
	assert.ElementsMatch(t, []string{"stu-a", "stu-b"}, studentIDs(ch.Students))
	assert.Len(t, ch.AttendanceSessions, 2)
	assert.ElementsMatch(t, []string{"note-a", "note-b"}, noteIDs(ch.Notes))
	assert.ElementsMatch(t, []string{admin.UserID, servant.UserID, "u-other"}, userIDs(ch.Users))
}

func TestPull_UnmanagedUserGetsEmptyLists(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	f.seedUser(t, "u-new", "Nobody", "SERVANT")

	resp, err := f.svc.Pull(context.Background(), helper.Identity{UserID: "u-new", Role: "SERVANT"}, epoch, false)
	require.NoError(t, err)

	assert.NotNil(t, resp.Changes.Classes)
	assert.Empty(t, resp.Changes.Classes)
	assert.Empty(t, resp.Changes.Students)
	assert.Empty(t, resp.Changes.Attendance)
	assert.Equal(t, []string{"u-new"}, userIDs(resp.Changes.Users))
}

func TestPull_ServerTimestampIsCapturedFirst(t *testing.T) {
	f := newFixture(t)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.FixedZone("WIB", 7*3600))
	f.svc.Now = func() time.Time { return fixed }

	resp, err := f.svc.Pull(context.Background(), admin, epoch, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T03:00:00.123Z", resp.ServerTimestamp)
}

func TestPull_IncrementalSinceServerTimestamp(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	ctx := context.Background()
	time.Sleep(5 * time.Millisecond)

	first, err := f.svc.Pull(ctx, servant, epoch, false)
	require.NoError(t, err)
	require.NotEmpty(t, first.Changes.Students)

	checkpoint, ok := ParseTimestamp(first.ServerTimestamp)
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)

	push := f.svc.Push(ctx, servant, []Change{
		change("edit", "STUDENT", "stu-a", "UPDATE", map[string]any{"classId": "class-a", "name": "Alice B."}),
	})
	require.Equal(t, []string{"edit"}, push.ProcessedUUIDs)

	next, err := f.svc.Pull(ctx, servant, checkpoint, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"stu-a"}, studentIDs(next.Changes.Students))
	assert.Equal(t, "Alice B.", next.Changes.Students[0].Name)
	assert.Empty(t, next.Changes.Classes)
	assert.Empty(t, next.Changes.AttendanceSessions)
}

func TestPull_SoftDeleteRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	ctx := context.Background()
	before := time.Now().UTC().Add(-time.Second)

	resp := f.svc.Push(ctx, servant, []Change{
		change("del", "STUDENT", "stu-a", "DELETE", nil),
	})
	require.Equal(t, []string{"del"}, resp.ProcessedUUIDs)

	all, err := f.svc.Pull(ctx, servant, before, false)
	require.NoError(t, err)
	require.Equal(t, []string{"stu-a"}, studentIDs(all.Changes.Students))
	assert.True(t, all.Changes.Students[0].IsDeleted)
	assert.NotNil(t, all.Changes.Students[0].DeletedAt)

	active, err := f.svc.Pull(ctx, servant, before, true)
	require.NoError(t, err)
	assert.Empty(t, active.Changes.Students)
	assert.NotEmpty(t, active.Changes.Classes)
}

func TestPull_DeletedManagerLinkDropsScope(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	ctx := context.Background()

	resp := f.svc.Push(ctx, admin, []Change{
		change("unlink", "CLASS_MANAGER", "class-a:"+servant.UserID, "DELETE", nil),
	})
	require.Equal(t, []string{"unlink"}, resp.ProcessedUUIDs)

	pull, err := f.svc.Pull(ctx, servant, epoch, false)
	require.NoError(t, err)
	assert.Empty(t, pull.Changes.Classes)
	assert.Empty(t, pull.Changes.Students)

	adminPull, err := f.svc.Pull(ctx, admin, epoch, true)
	require.NoError(t, err)
	for _, c := range adminPull.Changes.Classes {
		if c.ID == "class-a" {
			assert.Equal(t, "Andi", c.ManagerNames)
		}
	}
}
