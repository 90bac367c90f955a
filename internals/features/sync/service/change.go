package service

import (
	"fmt"
	"strings"
	"time"

	attendanceModel "refqa_backend/internals/features/attendance/model"
	"refqa_backend/internals/features/sync/dto"
)

// Change adalah satu mutasi dari device yang sudah tervalidasi bentuknya.
type Change struct {
	UUID       string
	EntityType string // token asli dari client
	Kind       EntityKind
	EntityID   string
	Operation  string
	Payload    map[string]any
	CreatedAt  *time.Time
}

func (c Change) IsDelete() bool {
	return c.Operation == dto.OperationDelete || c.Operation == dto.OperationVirtualDelete
}

func (c Change) IsCreate() bool {
	return c.Operation == dto.OperationCreate
}

// PayloadString ambil nilai string dari payload (kosong kalau tidak ada / bukan string).
func (c Change) PayloadString(key string) string {
	if v, ok := c.Payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// FromRequest mengubah ChangeRequest yang sudah divalidasi jadi Change.
func FromRequest(r dto.ChangeRequest) Change {
	ch := Change{
		UUID:       r.UUID,
		EntityType: r.EntityType,
		Kind:       ParseEntityKind(r.EntityType),
		EntityID:   r.EntityID,
		Operation:  r.Operation,
		Payload:    r.Payload,
	}
	if r.CreatedAt != nil {
		if t, ok := ParseTimestamp(*r.CreatedAt); ok {
			ch.CreatedAt = &t
		}
	}
	return ch
}

func failed(ch Change, err error) dto.FailedChange {
	return dto.FailedChange{UUID: ch.UUID, Error: err.Error()}
}

func unknownType(ch Change) error {
	return fmt.Errorf("%w: %s", ErrUnknownEntityType, ch.EntityType)
}

// checkPayload: nilai enum dicek sebelum tier, supaya tidak tersimpan
// dan tidak ikut menggagalkan change lain di tier yang sama.
func checkPayload(ch Change) error {
	if ch.Kind != KindAttendanceRecord || ch.IsDelete() {
		return nil
	}
	raw, ok := ch.Payload["status"]
	if !ok {
		return nil
	}
	st, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%w: status harus string", ErrMalformedChange)
	}
	if _, ok := attendanceModel.ParseAttendanceStatus(st); !ok {
		return fmt.Errorf("%w: status %q tidak dikenal (PRESENT|ABSENT|LATE|EXCUSED)", ErrMalformedChange, st)
	}
	return nil
}
