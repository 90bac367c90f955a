// internals/features/sync/service/sync_service.go
package service

import (
	"context"
	"time"

	"refqa_backend/internals/configs"
	notifService "refqa_backend/internals/features/notifications/service"
	"refqa_backend/internals/features/realtime/hub"

	"gorm.io/gorm"
)

// EventPublisher: antrian notifikasi. Publish tidak boleh blocking.
type EventPublisher interface {
	Publish(events []notifService.Event) bool
}

// SignalEmitter: channel realtime ("sesuatu berubah").
type SignalEmitter interface {
	Emit(ctx context.Context, sig hub.Signal) error
}

// SyncService: koordinasi write lewat transaksi DB. Satu-satunya state
// bersama adalah daftar tier yang sedang berjalan (untuk checkpoint pull).
//
// PullOverlap memundurkan serverTimestamp untuk menutup tier yang berjalan
// di instance lain (daftar in-flight cuma lokal). Client sudah menerima duplikat.
type SyncService struct {
	DB             *gorm.DB
	Notifier       EventPublisher
	Signals        SignalEmitter
	ConflictPolicy string
	PullOverlap    time.Duration
	Now            func() time.Time

	inflight *inflightTiers
}

func NewSyncService(db *gorm.DB, notifier EventPublisher, signals SignalEmitter, policy string) *SyncService {
	if policy == "" {
		policy = configs.ConflictPolicyLWW
	}
	return &SyncService{
		DB:             db,
		Notifier:       notifier,
		Signals:        signals,
		ConflictPolicy: policy,
		inflight:       newInflightTiers(),
	}
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
