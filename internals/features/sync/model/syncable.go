// internals/features/sync/model/syncable.go
package model

import "time"

// Syncable berisi kolom bersama semua entity yang ikut protokol sync.
// ID dibuat di device (offline) sebelum pertama kali ke server.
// Invariant: IsDeleted == true <=> DeletedAt != nil.
type Syncable struct {
	ID        string     `gorm:"type:varchar(64);primaryKey;column:id" json:"id"`
	CreatedAt time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null;index" json:"updatedAt"`
	IsDeleted bool       `gorm:"column:is_deleted;not null;default:false" json:"isDeleted"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deletedAt"`

	// Waktu edit menurut device (payload updatedAt), dipakai policy reject_stale.
	ClientUpdatedAt *time.Time `gorm:"column:client_updated_at" json:"clientUpdatedAt,omitempty"`
}

// MarkDeleted soft delete + bump updated_at supaya ikut ter-pull.
func (s *Syncable) MarkDeleted(at, now time.Time) {
	s.IsDeleted = true
	s.DeletedAt = &at
	s.UpdatedAt = now
}
