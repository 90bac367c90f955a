// internals/features/notifications/service/resolver.go
package service

import (
	"context"
	"fmt"

	"refqa_backend/internals/constants"
	classModel "refqa_backend/internals/features/classes/model"
	studentModel "refqa_backend/internals/features/students/model"
	userModel "refqa_backend/internals/features/users/user/model"

	"gorm.io/gorm"
)

type recipient struct {
	ID       string
	FcmToken *string
}

type managerRow struct {
	ClassID  string
	UserID   string
	FcmToken *string
}

// lookup berisi hasil query bulk untuk satu batch event.
type lookup struct {
	students map[string]studentModel.StudentModel
	classes  map[string]string // id → name
	managers map[string][]recipient
	admins   []recipient
	targets  map[string]recipient
	prefs    map[string]userModel.NotificationPreferenceModel
}

// Resolve mengubah event jadi pesan per user. Query dilakukan per tabel
// untuk seluruh batch, bukan per event.
func Resolve(ctx context.Context, db *gorm.DB, events []Event) ([]Message, error) {
	if len(events) == 0 {
		return nil, nil
	}
	lk, err := load(db.WithContext(ctx), events)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	for _, ev := range events {
		classID := ev.ClassID
		st, hasStudent := lk.students[ev.StudentID]
		if classID == "" && hasStudent {
			classID = st.ClassID
		}

		var candidates []recipient
		switch ev.Type {
		case TypeNoteAdded, TypeNoteUpdated, TypeAttendanceRecorded:
			candidates = append(candidates, lk.managers[classID]...)
			candidates = append(candidates, lk.admins...)
		case TypeNewUserRegistered:
			candidates = lk.admins
		case TypeBirthdayReminder, TypeInactiveStudent:
			if r, ok := lk.targets[ev.TargetUserID]; ok {
				candidates = []recipient{r}
			}
		default:
			continue
		}

		title, body := compose(ev, st.Name, lk.classes[classID])
		data := map[string]string{"type": ev.Type}
		if ev.EntityID != "" {
			data["entityId"] = ev.EntityID
		}
		if ev.StudentID != "" {
			data["studentId"] = ev.StudentID
		}
		if classID != "" {
			data["classId"] = classID
		}

		seen := map[string]bool{}
		for _, r := range candidates {
			if r.ID == ev.ActorUserID || seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			if !allows(lk.prefs, r.ID, ev.Type) {
				continue
			}
			m := Message{UserID: r.ID, Type: ev.Type, Title: title, Body: body, Data: data}
			if r.FcmToken != nil {
				m.FcmToken = *r.FcmToken
			}
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

func load(db *gorm.DB, events []Event) (*lookup, error) {
	lk := &lookup{
		students: map[string]studentModel.StudentModel{},
		classes:  map[string]string{},
		managers: map[string][]recipient{},
		targets:  map[string]recipient{},
		prefs:    map[string]userModel.NotificationPreferenceModel{},
	}

	studentIDs := map[string]struct{}{}
	targetIDs := map[string]struct{}{}
	needAdmins := false
	for _, ev := range events {
		if ev.StudentID != "" {
			studentIDs[ev.StudentID] = struct{}{}
		}
		switch ev.Type {
		case TypeBirthdayReminder, TypeInactiveStudent:
			if ev.TargetUserID != "" {
				targetIDs[ev.TargetUserID] = struct{}{}
			}
		default:
			needAdmins = true
		}
	}

	if len(studentIDs) > 0 {
		var rows []studentModel.StudentModel
		if err := db.Select("id", "class_id", "name").
			Where("id IN ?", keys(studentIDs)).
			Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("load students: %w", err)
		}
		for _, s := range rows {
			lk.students[s.ID] = s
		}
	}

	classIDs := map[string]struct{}{}
	for _, ev := range events {
		if ev.ClassID != "" {
			classIDs[ev.ClassID] = struct{}{}
		}
		if s, ok := lk.students[ev.StudentID]; ok {
			classIDs[s.ClassID] = struct{}{}
		}
	}

	userIDs := map[string]struct{}{}
	if len(classIDs) > 0 {
		var classes []classModel.ClassModel
		if err := db.Select("id", "name").Where("id IN ?", keys(classIDs)).Find(&classes).Error; err != nil {
			return nil, fmt.Errorf("load classes: %w", err)
		}
		for _, c := range classes {
			lk.classes[c.ID] = c.Name
		}

		var rows []managerRow
		if err := db.Table("class_managers").
			Select("class_managers.class_id AS class_id, users.id AS user_id, users.fcm_token AS fcm_token").
			Joins("JOIN users ON users.id = class_managers.user_id").
			Where("class_managers.class_id IN ?", keys(classIDs)).
			Where("class_managers.is_deleted = ? AND users.is_deleted = ? AND users.is_active = ?", false, false, true).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("load managers: %w", err)
		}
		for _, r := range rows {
			lk.managers[r.ClassID] = append(lk.managers[r.ClassID], recipient{ID: r.UserID, FcmToken: r.FcmToken})
			userIDs[r.UserID] = struct{}{}
		}
	}

	if needAdmins {
		var admins []userModel.UserModel
		if err := db.Select("id", "fcm_token").
			Where("role = ? AND is_active = ? AND is_deleted = ?", constants.RoleAdmin, true, false).
			Order("id ASC").
			Find(&admins).Error; err != nil {
			return nil, fmt.Errorf("load admins: %w", err)
		}
		for _, a := range admins {
			lk.admins = append(lk.admins, recipient{ID: a.ID, FcmToken: a.FcmToken})
			userIDs[a.ID] = struct{}{}
		}
	}

	if len(targetIDs) > 0 {
		var users []userModel.UserModel
		if err := db.Select("id", "fcm_token").
			Where("id IN ? AND is_active = ? AND is_deleted = ?", keys(targetIDs), true, false).
			Find(&users).Error; err != nil {
			return nil, fmt.Errorf("load target users: %w", err)
		}
		for _, u := range users {
			lk.targets[u.ID] = recipient{ID: u.ID, FcmToken: u.FcmToken}
			userIDs[u.ID] = struct{}{}
		}
	}

	if len(userIDs) > 0 {
		var prefs []userModel.NotificationPreferenceModel
		if err := db.Where("user_id IN ?", keys(userIDs)).Find(&prefs).Error; err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		for _, p := range prefs {
			lk.prefs[p.UserID] = p
		}
	}
	return lk, nil
}

// allows: tanpa baris preferensi berarti semua jenis aktif.
func allows(prefs map[string]userModel.NotificationPreferenceModel, userID, typ string) bool {
	p, ok := prefs[userID]
	if !ok {
		return true
	}
	switch typ {
	case TypeNoteAdded:
		return p.NoteAdded
	case TypeNoteUpdated:
		return p.NoteUpdated
	case TypeAttendanceRecorded:
		return p.AttendanceRecorded
	case TypeBirthdayReminder:
		return p.BirthdayReminder
	case TypeInactiveStudent:
		return p.InactiveStudent
	case TypeNewUserRegistered:
		return p.NewUserRegistered
	default:
		return false
	}
}

func compose(ev Event, studentName, className string) (string, string) {
	if studentName == "" {
		studentName = "A student"
	}
	switch ev.Type {
	case TypeNoteAdded:
		return "📝 New note", fmt.Sprintf("A new note was added for %s", studentName)
	case TypeNoteUpdated:
		return "📝 Note updated", fmt.Sprintf("A note for %s was updated", studentName)
	case TypeAttendanceRecorded:
		if className == "" {
			className = "a class"
		}
		return "✅ Attendance recorded", fmt.Sprintf("Attendance was taken for %s", className)
	case TypeNewUserRegistered:
		return "👤 New user", "A new user has registered"
	case TypeBirthdayReminder:
		if ev.Meta["when"] == "tomorrow" {
			return "🎂 Birthday Tomorrow", fmt.Sprintf("%s has a birthday tomorrow!", studentName)
		}
		return "🎉 Happy Birthday!", fmt.Sprintf("Today is %s's birthday!", studentName)
	case TypeInactiveStudent:
		return "⚠️ Check-in Needed", fmt.Sprintf("%s hasn't attended in %s days", studentName, ev.Meta["days"])
	default:
		return "", ""
	}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
