package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChangeLogModel mencatat setiap change push yang berhasil di-commit.
// Ditulis dalam transaksi tier yang sama; replay uuid yang sama tidak menimpa baris pertama.
type ChangeLogModel struct {
	UUID       string         `gorm:"type:varchar(64);primaryKey;column:uuid" json:"uuid"`
	UserID     string         `gorm:"type:varchar(64);not null;column:user_id;index:idx_sync_change_logs_user" json:"userId"`
	EntityType string         `gorm:"type:varchar(32);not null;column:entity_type" json:"entityType"`
	EntityID   string         `gorm:"type:varchar(64);not null;column:entity_id;index:idx_sync_change_logs_entity" json:"entityId"`
	Operation  string         `gorm:"type:varchar(16);not null;column:operation" json:"operation"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload"`
	AppliedAt  time.Time      `gorm:"column:applied_at;not null" json:"appliedAt"`
}

func (ChangeLogModel) TableName() string {
	return "sync_change_logs"
}
