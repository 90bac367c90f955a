// internals/features/classes/model/class_model.go
package model

import (
	syncModel "refqa_backend/internals/features/sync/model"
)

type ClassModel struct {
	syncModel.Syncable

	Name  string  `gorm:"type:varchar(120);not null;column:name" json:"name"`
	Grade *string `gorm:"type:varchar(60);column:grade" json:"grade"`

	// Denormalisasi untuk client (tidak disimpan): "Andi, Budi"
	ManagerNames string `gorm:"-" json:"managerNames"`
}

func (ClassModel) TableName() string {
	return "classes"
}
