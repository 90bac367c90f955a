// internals/features/students/model/student_model.go
package model

import (
	"time"

	syncModel "refqa_backend/internals/features/sync/model"
)

type StudentModel struct {
	syncModel.Syncable

	ClassID   string     `gorm:"type:varchar(64);not null;column:class_id;index:idx_students_class" json:"classId"`
	Name      string     `gorm:"type:varchar(120);not null;column:name" json:"name"`
	Phone     *string    `gorm:"type:varchar(32);column:phone" json:"phone"`
	Address   *string    `gorm:"type:text;column:address" json:"address"`
	Birthdate *time.Time `gorm:"type:date;column:birthdate" json:"birthdate"`
}

func (StudentModel) TableName() string {
	return "students"
}
