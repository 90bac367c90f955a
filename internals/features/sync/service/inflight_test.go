package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	classModel "refqa_backend/internals/features/classes/model"
	"refqa_backend/internals/features/sync/dto"
	"refqa_backend/internals/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (t *inflightTiers) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.starts)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestInflightTiers_CheckpointStopsAtOldestOpenTier(t *testing.T) {
	tiers := newInflightTiers()
	base := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)

	_, done1 := tiers.begin(fixedClock(base))
	_, done2 := tiers.begin(fixedClock(base.Add(2 * time.Second)))
	require.Equal(t, 2, tiers.count())

	now, cp := tiers.checkpoint(fixedClock(base.Add(5 * time.Second)))
	assert.Equal(t, base.Add(5*time.Second), now)
	assert.Equal(t, base.Add(-time.Millisecond), cp)

	done1()
	_, cp = tiers.checkpoint(fixedClock(base.Add(5 * time.Second)))
	assert.Equal(t, base.Add(2*time.Second-time.Millisecond), cp)

	done2()
	done2()
	_, cp = tiers.checkpoint(fixedClock(base.Add(5 * time.Second)))
	assert.Equal(t, base.Add(5*time.Second), cp)
	assert.Zero(t, tiers.count())
}

func TestPull_ServerTimestampHoldsBackForOpenTier(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)

	_, done := f.svc.inflight.begin(fixedClock(start))
	f.svc.Now = fixedClock(start.Add(3 * time.Second))

	resp, err := f.svc.Pull(context.Background(), admin, epoch, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T02:59:59.999Z", resp.ServerTimestamp)

	done()
	resp, err = f.svc.Pull(context.Background(), admin, epoch, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T03:00:03.000Z", resp.ServerTimestamp)
}

func TestPull_OverlapWindow(t *testing.T) {
	f := newFixture(t)
	f.svc.Now = fixedClock(time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC))
	f.svc.PullOverlap = 15 * time.Second

	resp, err := f.svc.Pull(context.Background(), admin, epoch, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T02:59:45.000Z", resp.ServerTimestamp)
}

// Pull yang jalan di tengah transaksi tier tidak melihat row yang belum
// commit; checkpoint-nya harus tetap membuat row itu muncul di pull berikutnya.
func TestPull_RowCommittedDuringPullIsNotLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refqa.db")
	writer := testutil.OpenDBAt(t, path)
	reader := testutil.OpenDBAt(t, path)
	ctx := context.Background()

	svc := NewSyncService(writer, nil, nil, "")
	readSvc := *svc
	readSvc.DB = reader

	var (
		once   sync.Once
		mid    *dto.PullResponse
		midErr error
	)
	require.NoError(t, writer.Callback().Create().After("gorm:create").Register("test:pull_mid_tier", func(tx *gorm.DB) {
		if tx.Statement.Table != "classes" {
			return
		}
		once.Do(func() {
			// beri jarak supaya jam pull jelas lebih baru dari stempel tier
			time.Sleep(5 * time.Millisecond)
			mid, midErr = readSvc.Pull(ctx, admin, epoch, false)
		})
	}))

	resp := svc.Push(ctx, admin, []Change{
		change("c1", "CLASS", "class-x", "CREATE", map[string]any{"name": "Class X"}),
	})
	require.Equal(t, []string{"c1"}, resp.ProcessedUUIDs)
	require.NoError(t, midErr)
	require.NotNil(t, mid)
	assert.Empty(t, mid.Changes.Classes, "row belum commit saat pull pertama")
	assert.Zero(t, svc.inflight.count())

	checkpoint, ok := ParseTimestamp(mid.ServerTimestamp)
	require.True(t, ok)

	var stored classModel.ClassModel
	require.NoError(t, writer.Take(&stored, "id = ?", "class-x").Error)
	assert.True(t, stored.UpdatedAt.After(checkpoint))

	next, err := svc.Pull(ctx, admin, checkpoint, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"class-x"}, classIDs(next.Changes.Classes))
}
