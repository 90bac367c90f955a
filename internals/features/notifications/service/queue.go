// internals/features/notifications/service/queue.go
package service

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
)

const processTimeout = 30 * time.Second

// Queue menampung batch event notifikasi dan memprosesnya di worker terpisah.
// Request sync tidak pernah menunggu notifikasi.
type Queue struct {
	db     *gorm.DB
	sender Sender
	ch     chan []Event

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewQueue(db *gorm.DB, sender Sender, size int) *Queue {
	if size <= 0 {
		size = 256
	}
	if sender == nil {
		sender = LogSender{}
	}
	return &Queue{
		db:     db,
		sender: sender,
		ch:     make(chan []Event, size),
	}
}

// Start menjalankan n worker.
func (q *Queue) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	log.Printf("[NOTIFY] %d worker notifikasi jalan (buffer %d)", workers, cap(q.ch))
}

// Publish non-blocking. false kalau antrian penuh atau sudah ditutup.
func (q *Queue) Publish(events []Event) bool {
	if len(events) == 0 {
		return true
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- events:
		return true
	default:
		return false
	}
}

// Close berhenti menerima event lalu menunggu antrian habis diproses.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for batch := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		if err := q.Process(ctx, batch); err != nil {
			log.Printf("[NOTIFY] worker %d gagal proses %d event: %v", id, len(batch), err)
		}
		cancel()
	}
}

// Process me-resolve penerima lalu mengirim lewat sender. Dipanggil worker,
// dan langsung oleh job/CLI yang tidak butuh antrian.
func (q *Queue) Process(ctx context.Context, events []Event) error {
	msgs, err := Resolve(ctx, q.db, events)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	return q.sender.Send(ctx, msgs)
}
