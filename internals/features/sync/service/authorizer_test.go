package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatchIndex(t *testing.T) {
	idx := NewBatchIndex([]Change{
		change("1", "STUDENT", "stu-new", "CREATE", map[string]any{"classId": "class-a"}),
		change("2", "ATTENDANCE_SESSION", "ses-new", "CREATE", map[string]any{"classId": "class-a"}),
		change("3", "STUDENT", "stu-gone", "DELETE", map[string]any{"classId": "class-b"}),
		change("4", "NOTE", "note-1", "CREATE", map[string]any{"classId": "class-b"}),
	})

	assert.Equal(t, map[string]string{"stu-new": "class-a"}, idx.StudentClass)
	assert.Equal(t, map[string]string{"ses-new": "class-a"}, idx.SessionClass)
}

func TestPrefetchAuth_AdminSkipsEverything(t *testing.T) {
	f := newFixture(t)

	scope, err := PrefetchAuth(context.Background(), f.db, admin, []Change{
		change("1", "CLASS", "class-x", "CREATE", map[string]any{"name": "X"}),
	})
	require.NoError(t, err)
	assert.True(t, scope.Privileged)
	assert.NoError(t, scope.Authorize(change("1", "CLASS", "class-x", "CREATE", nil)))
	assert.ErrorIs(t, scope.Authorize(change("2", "PAYMENT", "p", "CREATE", nil)), ErrUnknownEntityType)
}

func TestAuthorize_ServantScope(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	f.seedNote(t, "note-a", "stu-a", "ok")
	f.seedNote(t, "note-b", "stu-b", "hidden")

	changes := []Change{
		change("class", "CLASS", "class-a", "UPDATE", map[string]any{"name": "A2"}),
		change("user", "USER", servant.UserID, "UPDATE", map[string]any{"name": "B"}),
		change("mgr", "CLASS_MANAGER", "cm", "CREATE", map[string]any{"classId": "class-a", "userId": "x"}),
		change("stu-ok", "STUDENT", "stu-a", "UPDATE", map[string]any{"classId": "class-a", "name": "Alice"}),
		change("stu-b", "STUDENT", "stu-x", "CREATE", map[string]any{"classId": "class-b", "name": "X"}),
		change("stu-move", "STUDENT", "stu-b", "UPDATE", map[string]any{"classId": "class-a", "name": "Bob"}),
		change("ses-ok", "ATTENDANCE_SESSION", "ses-new", "CREATE", map[string]any{"classId": "class-a", "date": "2024-03-02"}),
		change("note-ok", "NOTE", "note-new", "CREATE", map[string]any{"studentId": "stu-a", "content": "hi"}),
		change("note-b", "NOTE", "note-x", "CREATE", map[string]any{"studentId": "stu-b", "content": "hi"}),
		change("note-hijack", "NOTE", "note-b", "UPDATE", map[string]any{"studentId": "stu-a", "content": "mine"}),
		change("note-nostudent", "NOTE", "note-y", "CREATE", map[string]any{"content": "?"}),
		change("rec-ok", "ATTENDANCE", "rec-new", "CREATE", map[string]any{"sessionId": "ses-a", "studentId": "stu-a"}),
		change("rec-b", "ATTENDANCE", "rec-x", "CREATE", map[string]any{"sessionId": "ses-b", "studentId": "stu-b"}),
		change("unknown", "PAYMENT", "p", "CREATE", nil),
	}

	scope, err := PrefetchAuth(context.Background(), f.db, servant, changes)
	require.NoError(t, err)
	require.False(t, scope.Privileged)

	allowed := map[string]bool{"stu-ok": true, "ses-ok": true, "note-ok": true, "rec-ok": true}
	for _, ch := range changes {
		err := scope.Authorize(ch)
		switch {
		case allowed[ch.UUID]:
			assert.NoError(t, err, ch.UUID)
		case ch.UUID == "unknown":
			assert.ErrorIs(t, err, ErrUnknownEntityType)
		default:
			assert.True(t, errors.Is(err, ErrForbidden), "%s: %v", ch.UUID, err)
		}
	}
}

func TestAuthorize_SameBatchFallback(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)

	// murid, sesi, note & absensi dibuat offline bersamaan
	changes := []Change{
		change("note", "NOTE", "note-new", "CREATE", map[string]any{"studentId": "stu-new", "content": "first day"}),
		change("rec", "ATTENDANCE_RECORD", "rec-new", "CREATE", map[string]any{"sessionId": "ses-new", "studentId": "stu-new"}),
		change("stu", "STUDENT", "stu-new", "CREATE", map[string]any{"classId": "class-a", "name": "Nia"}),
		change("ses", "ATTENDANCE_SESSION", "ses-new", "CREATE", map[string]any{"classId": "class-a", "date": "2024-03-05"}),
		change("note-b", "NOTE", "note-b", "CREATE", map[string]any{"studentId": "stu-new-b", "content": "x"}),
		change("stu-b", "STUDENT", "stu-new-b", "CREATE", map[string]any{"classId": "class-b", "name": "Xena"}),
	}

	scope, err := PrefetchAuth(context.Background(), f.db, servant, changes)
	require.NoError(t, err)

	for _, ch := range changes[:4] {
		assert.NoError(t, scope.Authorize(ch), ch.UUID)
	}
	assert.ErrorIs(t, scope.Authorize(changes[4]), ErrForbidden)
	assert.ErrorIs(t, scope.Authorize(changes[5]), ErrForbidden)
}

func TestManagedClassIDs_IgnoresDeletedLinks(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t)
	require.NoError(t, f.db.Exec(
		"UPDATE class_managers SET is_deleted = ?, deleted_at = CURRENT_TIMESTAMP WHERE class_id = ? AND user_id = ?",
		true, "class-b", "u-other").Error)

	ids, err := ManagedClassIDs(context.Background(), f.db, "u-other")
	require.NoError(t, err)
	assert.Equal(t, []string{"class-a"}, ids)

	ids, err = ManagedClassIDs(context.Background(), f.db, servant.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"class-a"}, ids)
}
