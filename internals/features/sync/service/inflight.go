// internals/features/sync/service/inflight.go
package service

import (
	"sync"
	"time"
)

// inflightTiers mencatat waktu mulai transaksi tier yang belum commit.
// Row di tier itu distempel dengan waktu mulai, jadi checkpoint pull
// tidak boleh melewati tier tertua yang masih terbuka.
type inflightTiers struct {
	mu     sync.Mutex
	nextID uint64
	starts map[uint64]time.Time
}

func newInflightTiers() *inflightTiers {
	return &inflightTiers{starts: map[uint64]time.Time{}}
}

// begin mengambil waktu stempel tier di bawah lock yang sama dengan
// checkpoint, lalu mengembalikan fungsi untuk melepasnya.
func (t *inflightTiers) begin(clock func() time.Time) (time.Time, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := clock()
	t.nextID++
	id := t.nextID
	t.starts[id] = start

	return start, func() {
		t.mu.Lock()
		delete(t.starts, id)
		t.mu.Unlock()
	}
}

// checkpoint: min(sekarang, tier tertua - 1ms). Dikurangi 1ms karena
// filter pull memakai updated_at > since dan response dibulatkan ke milidetik.
func (t *inflightTiers) checkpoint(clock func() time.Time) (now, cp time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now = clock()
	cp = now
	for _, start := range t.starts {
		if edge := start.Add(-time.Millisecond); edge.Before(cp) {
			cp = edge
		}
	}
	return now, cp
}
