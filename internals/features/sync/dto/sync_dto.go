// internals/features/sync/dto/sync_dto.go
package dto

import (
	"encoding/json"
	"strings"

	attendanceModel "refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	noteModel "refqa_backend/internals/features/notes/model"
	studentModel "refqa_backend/internals/features/students/model"
	userModel "refqa_backend/internals/features/users/user/model"
)

const (
	OperationCreate        = "CREATE"
	OperationUpdate        = "UPDATE"
	OperationDelete        = "DELETE"
	OperationVirtualDelete = "VIRTUAL_DELETE"
)

/* ===============================
   PUSH  (POST /sync)
=================================*/

// PushRequest: changes sengaja pointer supaya bisa bedakan "tidak ada" vs [].
// Item disimpan mentah, di-decode satu per satu supaya item rusak tidak menggagalkan batch.
type PushRequest struct {
	Changes *[]json.RawMessage `json:"changes"`
}

type ChangeRequest struct {
	UUID       string         `json:"uuid" validate:"required,max=64"`
	EntityType string         `json:"entityType" validate:"required"`
	EntityID   string         `json:"entityId" validate:"required,max=64"`
	Operation  string         `json:"operation" validate:"required,oneof=CREATE UPDATE DELETE VIRTUAL_DELETE"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  *string        `json:"createdAt,omitempty"`
}

// Normalize trim + uppercase token.
func (r *ChangeRequest) Normalize() {
	r.UUID = strings.TrimSpace(r.UUID)
	r.EntityType = strings.TrimSpace(r.EntityType)
	r.EntityID = strings.TrimSpace(r.EntityID)
	r.Operation = strings.ToUpper(strings.TrimSpace(r.Operation))
	if r.Payload == nil {
		r.Payload = map[string]any{}
	}
}

type FailedChange struct {
	UUID  string `json:"uuid"`
	Error string `json:"error"`
}

type PushResponse struct {
	Success        bool           `json:"success"`
	ProcessedUUIDs []string       `json:"processedUuids"`
	FailedUUIDs    []FailedChange `json:"failedUuids"`
}

/* ===============================
   PULL  (GET /sync?since=)
=================================*/

type PullChanges struct {
	Students           []studentModel.StudentModel              `json:"students"`
	AttendanceSessions []attendanceModel.AttendanceSessionModel `json:"attendance_sessions"`
	Attendance         []attendanceModel.AttendanceRecordModel  `json:"attendance"`
	Notes              []noteModel.NoteModel                    `json:"notes"`
	Classes            []classModel.ClassModel                  `json:"classes"`
	Users              []userModel.UserModel                    `json:"users"`
}

type PullResponse struct {
	ServerTimestamp string      `json:"serverTimestamp"`
	Changes         PullChanges `json:"changes"`
}
