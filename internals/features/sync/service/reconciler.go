// internals/features/sync/service/reconciler.go
package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"refqa_backend/internals/configs"
	attendanceModel "refqa_backend/internals/features/attendance/model"
	noteModel "refqa_backend/internals/features/notes/model"
	notifService "refqa_backend/internals/features/notifications/service"
	"refqa_backend/internals/features/realtime/hub"
	"refqa_backend/internals/features/sync/dto"
	syncModel "refqa_backend/internals/features/sync/model"
	helper "refqa_backend/internals/helpers"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Push menerapkan batch change dari device.
// Satu transaksi per tier; tier yang gagal tidak membatalkan tier lain.
// Setiap UUID input muncul tepat sekali di processed atau failed.
func (s *SyncService) Push(ctx context.Context, who helper.Identity, changes []Change) dto.PushResponse {
	resp := dto.PushResponse{
		Success:        true,
		ProcessedUUIDs: []string{},
		FailedUUIDs:    []dto.FailedChange{},
	}
	if len(changes) == 0 {
		return resp
	}

	prepared := make([]Change, len(changes))
	for i, ch := range changes {
		ch.Payload = SanitizePayload(ch.Payload)
		prepared[i] = ch
	}

	scope, err := PrefetchAuth(ctx, s.DB, who, prepared)
	if err != nil {
		log.Printf("[SYNC] prefetch otorisasi gagal user=%s: %v", who.UserID, err)
		for _, ch := range prepared {
			resp.FailedUUIDs = append(resp.FailedUUIDs, dto.FailedChange{UUID: ch.UUID, Error: describeTxError(err)})
		}
		return resp
	}

	for _, tier := range BatchByTier(prepared) {
		accepted := make([]Change, 0, len(tier.Changes))
		for _, ch := range tier.Changes {
			if err := checkPayload(ch); err != nil {
				resp.FailedUUIDs = append(resp.FailedUUIDs, failed(ch, err))
				continue
			}
			if err := scope.Authorize(ch); err != nil {
				resp.FailedUUIDs = append(resp.FailedUUIDs, failed(ch, err))
				continue
			}
			accepted = append(accepted, ch)
		}

		if s.ConflictPolicy == configs.ConflictPolicyRejectStale && len(accepted) > 0 {
			kept, stale, err := s.rejectStale(ctx, accepted)
			if err != nil {
				msg := describeTxError(err)
				for _, ch := range accepted {
					resp.FailedUUIDs = append(resp.FailedUUIDs, dto.FailedChange{UUID: ch.UUID, Error: msg})
				}
				continue
			}
			resp.FailedUUIDs = append(resp.FailedUUIDs, stale...)
			accepted = kept
		}

		if len(accepted) == 0 {
			continue
		}

		if err := s.applyTier(ctx, who, accepted); err != nil {
			log.Printf("[SYNC] tier %d gagal (%d change) user=%s: %v", tier.Priority, len(accepted), who.UserID, err)
			msg := describeTxError(err)
			for _, ch := range accepted {
				resp.FailedUUIDs = append(resp.FailedUUIDs, dto.FailedChange{UUID: ch.UUID, Error: msg})
			}
			continue
		}

		for _, ch := range accepted {
			resp.ProcessedUUIDs = append(resp.ProcessedUUIDs, ch.UUID)
		}
		s.publishEvents(ctx, who, accepted)
	}

	if len(resp.ProcessedUUIDs) > 0 {
		s.emitSyncUpdate(who, len(resp.ProcessedUUIDs))
	}
	return resp
}

func (s *SyncService) applyTier(ctx context.Context, who helper.Identity, changes []Change) error {
	now, done := s.inflight.begin(s.now)
	defer done()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ch := range changes {
			if err := applyChange(tx, ch, now); err != nil {
				return fmt.Errorf("%s %s: %w", ch.Kind, ch.EntityID, err)
			}
			if err := logChange(tx, who, ch, now); err != nil {
				return fmt.Errorf("change log %s: %w", ch.UUID, err)
			}
		}
		return nil
	})
}

func applyChange(tx *gorm.DB, ch Change, now time.Time) error {
	table, ok := ch.Kind.table()
	if !ok {
		return unknownType(ch)
	}
	if ch.IsDelete() {
		return softDelete(tx, table, ch, now)
	}
	return upsert(tx, table, ch, now)
}

// softDelete: entity yang belum ada dianggap sukses (no-op).
func softDelete(tx *gorm.DB, table entityTable, ch Change, now time.Time) error {
	deletedAt := now
	if t, ok := ch.Payload["deletedAt"].(time.Time); ok {
		deletedAt = t
	}
	return tx.Model(table.model()).
		Where("id = ?", ch.EntityID).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": deletedAt,
			"updated_at": now,
		}).Error
}

// upsert: UPDATE dulu supaya payload parsial (mis. cuma isDeleted) tidak
// kena NOT NULL; INSERT kalau baris belum ada.
func upsert(tx *gorm.DB, table entityTable, ch Change, now time.Time) error {
	values, updateCols := buildValues(table, ch, now)

	set := make(map[string]any, len(updateCols))
	for _, col := range updateCols {
		set[col] = values[col]
	}
	res := tx.Model(table.model()).Where("id = ?", ch.EntityID).Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// ON CONFLICT untuk device lain yang insert id yang sama di saat bersamaan
	return tx.Model(table.model()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(updateCols),
		}).
		Create(values).Error
}

// buildValues memetakan payload ke kolom (key di luar whitelist diabaikan).
// id/created_at/updated_at tidak pernah diambil langsung dari payload.
func buildValues(table entityTable, ch Change, now time.Time) (map[string]any, []string) {
	values := make(map[string]any, len(ch.Payload)+4)
	for key, v := range ch.Payload {
		if col, ok := table.column(key); ok {
			values[col] = v
		}
	}

	if ch.Kind == KindAttendanceRecord {
		if st, ok := values["status"].(string); ok {
			if parsed, valid := attendanceModel.ParseAttendanceStatus(st); valid {
				values["status"] = string(parsed)
			}
		}
	}
	normalizeSoftDelete(values, now)

	if t, ok := ch.Payload["updatedAt"].(time.Time); ok {
		values["client_updated_at"] = t
	}

	updateCols := make([]string, 0, len(values)+1)
	for col := range values {
		updateCols = append(updateCols, col)
	}
	updateCols = append(updateCols, "updated_at")
	sort.Strings(updateCols)

	values["id"] = ch.EntityID
	values["updated_at"] = now
	values["created_at"] = createdAt(ch, now)
	return values, updateCols
}

// normalizeSoftDelete menjaga is_deleted ⇔ deleted_at != nil.
func normalizeSoftDelete(values map[string]any, now time.Time) {
	rawFlag, hasFlag := values["is_deleted"]
	rawAt, hasAt := values["deleted_at"]

	if hasFlag {
		flag, ok := rawFlag.(bool)
		if !ok {
			delete(values, "is_deleted")
			hasFlag = false
		} else if flag {
			if _, isTime := rawAt.(time.Time); !isTime {
				values["deleted_at"] = now
			}
			return
		} else {
			values["deleted_at"] = nil
			return
		}
	}

	if !hasFlag && hasAt {
		switch at := rawAt.(type) {
		case time.Time:
			values["is_deleted"] = true
			values["deleted_at"] = at
		case nil:
			values["is_deleted"] = false
		default:
			delete(values, "deleted_at")
		}
	}
}

func createdAt(ch Change, now time.Time) time.Time {
	if t, ok := ch.Payload["createdAt"].(time.Time); ok {
		return t
	}
	if ch.CreatedAt != nil {
		return *ch.CreatedAt
	}
	return now
}

func logChange(tx *gorm.DB, who helper.Identity, ch Change, now time.Time) error {
	payload, err := sonic.Marshal(ch.Payload)
	if err != nil {
		return err
	}
	entry := syncModel.ChangeLogModel{
		UUID:       ch.UUID,
		UserID:     who.UserID,
		EntityType: ch.Kind.String(),
		EntityID:   ch.EntityID,
		Operation:  ch.Operation,
		Payload:    datatypes.JSON(payload),
		AppliedAt:  now,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

type staleRow struct {
	ID              string
	ClientUpdatedAt *time.Time
}

// rejectStale (policy reject_stale): tolak upsert yang updatedAt-nya
// lebih tua dari edit terakhir yang sudah tersimpan. Satu query per kind.
func (s *SyncService) rejectStale(ctx context.Context, changes []Change) ([]Change, []dto.FailedChange, error) {
	idsByKind := map[EntityKind][]string{}
	for _, ch := range changes {
		if ch.IsDelete() {
			continue
		}
		if _, ok := ch.Payload["updatedAt"].(time.Time); ok {
			idsByKind[ch.Kind] = append(idsByKind[ch.Kind], ch.EntityID)
		}
	}

	stored := make(map[EntityKind]map[string]time.Time, len(idsByKind))
	for kind, ids := range idsByKind {
		table, ok := kind.table()
		if !ok {
			continue
		}
		var rows []staleRow
		if err := s.DB.WithContext(ctx).
			Model(table.model()).
			Select("id, client_updated_at").
			Where("id IN ?", ids).
			Scan(&rows).Error; err != nil {
			return nil, nil, err
		}
		m := make(map[string]time.Time, len(rows))
		for _, r := range rows {
			if r.ClientUpdatedAt != nil {
				m[r.ID] = *r.ClientUpdatedAt
			}
		}
		stored[kind] = m
	}

	kept := make([]Change, 0, len(changes))
	var rejected []dto.FailedChange
	for _, ch := range changes {
		clientAt, ok := ch.Payload["updatedAt"].(time.Time)
		if ok && !ch.IsDelete() {
			if serverAt, found := stored[ch.Kind][ch.EntityID]; found && clientAt.Before(serverAt) {
				rejected = append(rejected, failed(ch, fmt.Errorf("%w: %s %s sudah diubah pada %s",
					ErrStaleWrite, ch.Kind, ch.EntityID, serverAt.Format(time.RFC3339))))
				continue
			}
		}
		kept = append(kept, ch)
	}
	return kept, rejected, nil
}

// publishEvents: fire-and-forget, kegagalan notifikasi tidak mempengaruhi sync.
func (s *SyncService) publishEvents(ctx context.Context, who helper.Identity, changes []Change) {
	if s.Notifier == nil {
		return
	}
	noteStudents := s.storedNoteStudents(ctx, changes)

	var events []notifService.Event
	for _, ch := range changes {
		switch {
		case ch.Kind == KindNote && !ch.IsDelete():
			typ := notifService.TypeNoteUpdated
			if ch.IsCreate() {
				typ = notifService.TypeNoteAdded
			}
			studentID := ch.PayloadString("studentId")
			if studentID == "" {
				studentID = noteStudents[ch.EntityID]
			}
			events = append(events, notifService.Event{
				Type:        typ,
				EntityID:    ch.EntityID,
				StudentID:   studentID,
				ActorUserID: who.UserID,
			})
		case ch.Kind == KindAttendanceSession && ch.IsCreate():
			events = append(events, notifService.Event{
				Type:        notifService.TypeAttendanceRecorded,
				EntityID:    ch.EntityID,
				ClassID:     ch.PayloadString("classId"),
				ActorUserID: who.UserID,
			})
		case ch.Kind == KindUser && ch.IsCreate():
			events = append(events, notifService.Event{
				Type:        notifService.TypeNewUserRegistered,
				EntityID:    ch.EntityID,
				ActorUserID: who.UserID,
			})
		}
	}
	if len(events) == 0 {
		return
	}
	if !s.Notifier.Publish(events) {
		log.Printf("[NOTIFY] antrian penuh, %d event dibuang", len(events))
	}
}

func (s *SyncService) emitSyncUpdate(who helper.Identity, count int) {
	if s.Signals == nil {
		return
	}
	sig := hub.Signal{
		Event: hub.EventSyncUpdate,
		Data:  map[string]any{"by": who.UserID, "count": count},
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Signals.Emit(ctx, sig); err != nil {
			log.Printf("[REALTIME] emit sync_update gagal: %v", err)
		}
	}()
}

// storedNoteStudents: update note tanpa studentId di payload, ambil
// murid dari baris yang tersimpan (satu query, setelah tier commit).
func (s *SyncService) storedNoteStudents(ctx context.Context, changes []Change) map[string]string {
	ids := idSet{}
	for _, ch := range changes {
		if ch.Kind == KindNote && !ch.IsDelete() && ch.PayloadString("studentId") == "" {
			ids.add(ch.EntityID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var rows []noteModel.NoteModel
	if err := s.DB.WithContext(ctx).
		Select("id", "student_id").
		Where("id IN ?", ids.list()).
		Find(&rows).Error; err != nil {
		log.Printf("[NOTIFY] gagal resolve murid untuk note: %v", err)
		return nil
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.StudentID
	}
	return out
}
