package model

import (
	syncModel "refqa_backend/internals/features/sync/model"
)

// ClassManagerModel: relasi many-to-many users <-> classes.
type ClassManagerModel struct {
	syncModel.Syncable

	ClassID string `gorm:"type:varchar(64);not null;column:class_id;uniqueIndex:uq_class_managers_class_user,where:is_deleted = false;index:idx_class_managers_class" json:"classId"`
	UserID  string `gorm:"type:varchar(64);not null;column:user_id;uniqueIndex:uq_class_managers_class_user,where:is_deleted = false;index:idx_class_managers_user" json:"userId"`
}

func (ClassManagerModel) TableName() string {
	return "class_managers"
}
