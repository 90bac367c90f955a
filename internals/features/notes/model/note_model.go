// internals/features/notes/model/note_model.go
package model

import (
	syncModel "refqa_backend/internals/features/sync/model"
)

type NoteModel struct {
	syncModel.Syncable

	StudentID string  `gorm:"type:varchar(64);not null;column:student_id;index:idx_notes_student" json:"studentId"`
	AuthorID  *string `gorm:"type:varchar(64);column:author_id" json:"authorId"`
	Content   string  `gorm:"type:text;not null;column:content" json:"content"`
}

func (NoteModel) TableName() string {
	return "notes"
}
