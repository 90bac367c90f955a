package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msgs []Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msgs...)
	return r.err
}

func (r *recordingSender) sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

func TestQueue_PublishIsNonBlocking(t *testing.T) {
	q := NewQueue(nil, &recordingSender{}, 1)

	ev := []Event{{Type: TypeNoteAdded}}
	assert.True(t, q.Publish(ev))
	assert.False(t, q.Publish(ev), "buffer penuh, event dibuang")
	assert.True(t, q.Publish(nil), "batch kosong selalu ok")
}

func TestQueue_DeliversAndDrainsOnClose(t *testing.T) {
	db := seed(t)
	rec := &recordingSender{}
	q := NewQueue(db, rec, 8)
	q.Start(2)

	require.True(t, q.Publish([]Event{{Type: TypeNewUserRegistered, EntityID: "u-new", ActorUserID: "u-new"}}))
	require.True(t, q.Publish([]Event{{Type: TypeNoteAdded, StudentID: "stu-a", ActorUserID: "u-servant"}}))
	q.Close()

	users := map[string]int{}
	for _, m := range rec.sent() {
		users[m.UserID]++
	}
	assert.Equal(t, map[string]int{"u-admin": 2, "u-other": 1}, users)

	assert.False(t, q.Publish([]Event{{Type: TypeNoteAdded}}), "antrian sudah ditutup")
	q.Close()
}

func TestQueue_ProcessSkipsSenderWithoutRecipients(t *testing.T) {
	db := seed(t)
	rec := &recordingSender{err: errors.New("should not be called")}
	q := NewQueue(db, rec, 1)

	err := q.Process(context.Background(), []Event{{Type: TypeInactiveStudent, TargetUserID: "u-missing"}})
	require.NoError(t, err)
	assert.Empty(t, rec.sent())
}

func TestMultiSender_ContinuesAfterError(t *testing.T) {
	boom := errors.New("fcm down")
	first := &recordingSender{err: boom}
	second := &recordingSender{}

	err := MultiSender{first, nil, second}.Send(context.Background(), []Message{{UserID: "u1"}})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, first.sent(), 1)
	assert.Len(t, second.sent(), 1)
	assert.NoError(t, MultiSender{LogSender{}}.Send(context.Background(), []Message{{UserID: "u1", FcmToken: "x"}}))
}
