// internals/features/notifications/scheduler/jobs.go
package scheduler

import (
	"context"
	"log"
	"strconv"
	"time"

	"refqa_backend/internals/constants"
	attendanceModel "refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	notifService "refqa_backend/internals/features/notifications/service"
	studentModel "refqa_backend/internals/features/students/model"
	userDTO "refqa_backend/internals/features/users/user/dto"
	userModel "refqa_backend/internals/features/users/user/model"

	"gorm.io/gorm"
)

// Publisher: biasanya *notifService.Queue.
type Publisher interface {
	Publish(events []notifService.Event) bool
}

// Jobs berisi pengecekan terjadwal. Job hanya membuat event; pengiriman lewat antrian.
type Jobs struct {
	DB        *gorm.DB
	Publisher Publisher
	Now       func() time.Time
}

func NewJobs(db *gorm.DB, pub Publisher) *Jobs {
	return &Jobs{DB: db, Publisher: pub}
}

func (j *Jobs) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

type subscriber struct {
	UserID        string
	ThresholdDays int
}

// CheckBirthdays: pagi → ulang tahun hari ini, malam → besok.
// Yang diberi tahu hanya pengelola kelas si murid.
func (j *Jobs) CheckBirthdays(ctx context.Context, morning bool) (int, error) {
	db := j.DB.WithContext(ctx)

	// user tanpa baris preferensi memakai default
	def := userDTO.DefaultNotificationPreference("")
	var users []subscriber
	if err := db.Table("users").
		Select("users.id AS user_id").
		Joins("LEFT JOIN notification_preferences np ON np.user_id = users.id").
		Where("users.is_active = ? AND users.is_deleted = ?", true, false).
		Where("users.role IN ?", constants.ReminderRoles).
		Where("COALESCE(np.birthday_reminder, ?) = ? AND COALESCE(np.birthday_notify_morning, ?) = ?",
			def.BirthdayReminder, true, def.BirthdayNotifyMorning, morning).
		Scan(&users).Error; err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}

	target := j.now()
	when := "today"
	if !morning {
		target = target.AddDate(0, 0, 1)
		when = "tomorrow"
	}

	classesByUser, classIDs, err := managedClasses(db, users)
	if err != nil {
		return 0, err
	}
	if len(classIDs) == 0 {
		return 0, nil
	}

	// Filter bulan/tanggal di Go: EXTRACT/strftime beda antar dialek.
	var students []studentModel.StudentModel
	if err := db.Select("id", "class_id", "name", "birthdate").
		Where("class_id IN ? AND is_deleted = ? AND birthdate IS NOT NULL", classIDs, false).
		Find(&students).Error; err != nil {
		return 0, err
	}
	byClass := map[string][]studentModel.StudentModel{}
	for _, s := range students {
		b := s.Birthdate
		if b.Month() == target.Month() && b.Day() == target.Day() {
			byClass[s.ClassID] = append(byClass[s.ClassID], s)
		}
	}

	var events []notifService.Event
	for _, u := range users {
		for _, cid := range classesByUser[u.UserID] {
			for _, s := range byClass[cid] {
				events = append(events, notifService.Event{
					Type:         notifService.TypeBirthdayReminder,
					EntityID:     s.ID,
					StudentID:    s.ID,
					ClassID:      s.ClassID,
					TargetUserID: u.UserID,
					Meta:         map[string]string{"when": when},
				})
			}
		}
	}
	return j.publish("birthday", events), nil
}

// CheckInactiveStudents: murid tanpa absensi di sesi dalam N hari terakhir
// (N dari preferensi masing-masing user).
func (j *Jobs) CheckInactiveStudents(ctx context.Context) (int, error) {
	db := j.DB.WithContext(ctx)

	def := userDTO.DefaultNotificationPreference("")
	var users []subscriber
	if err := db.Table("users").
		Select("users.id AS user_id, COALESCE(np.inactive_threshold_days, ?) AS threshold_days", def.InactiveThresholdDays).
		Joins("LEFT JOIN notification_preferences np ON np.user_id = users.id").
		Where("users.is_active = ? AND users.is_deleted = ?", true, false).
		Where("COALESCE(np.inactive_student, ?) = ?", def.InactiveStudent, true).
		Scan(&users).Error; err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}

	classesByUser, classIDs, err := managedClasses(db, users)
	if err != nil {
		return 0, err
	}
	if len(classIDs) == 0 {
		return 0, nil
	}

	var students []studentModel.StudentModel
	if err := db.Select("id", "class_id", "name").
		Where("class_id IN ? AND is_deleted = ?", classIDs, false).
		Find(&students).Error; err != nil {
		return 0, err
	}
	byClass := map[string][]studentModel.StudentModel{}
	ids := make([]string, 0, len(students))
	for _, s := range students {
		byClass[s.ClassID] = append(byClass[s.ClassID], s)
		ids = append(ids, s.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	lastSeen, err := lastAttendance(db, ids)
	if err != nil {
		return 0, err
	}

	today := truncateDay(j.now())
	var events []notifService.Event
	for _, u := range users {
		days := userModel.NotificationPreferenceModel{InactiveThresholdDays: u.ThresholdDays}.ThresholdDays()
		threshold := today.AddDate(0, 0, -days)
		for _, cid := range classesByUser[u.UserID] {
			for _, s := range byClass[cid] {
				if last, ok := lastSeen[s.ID]; ok && !last.Before(threshold) {
					continue
				}
				events = append(events, notifService.Event{
					Type:         notifService.TypeInactiveStudent,
					EntityID:     s.ID,
					StudentID:    s.ID,
					ClassID:      s.ClassID,
					TargetUserID: u.UserID,
					Meta:         map[string]string{"days": strconv.Itoa(days)},
				})
			}
		}
	}
	return j.publish("inactive", events), nil
}

type lastSeenRow struct {
	StudentID string
	Date      time.Time
}

// lastAttendance: tanggal sesi terakhir per murid yang tercatat hadir di sesi itu.
func lastAttendance(db *gorm.DB, studentIDs []string) (map[string]time.Time, error) {
	var rows []lastSeenRow
	if err := db.Model(&attendanceModel.AttendanceRecordModel{}).
		Select("attendance_records.student_id AS student_id, attendance_sessions.date AS date").
		Joins("JOIN attendance_sessions ON attendance_sessions.id = attendance_records.session_id").
		Where("attendance_records.student_id IN ?", studentIDs).
		Where("attendance_records.is_deleted = ? AND attendance_sessions.is_deleted = ?", false, false).
		Where("attendance_records.status IN ?", []attendanceModel.AttendanceStatus{
			attendanceModel.AttendancePresent, attendanceModel.AttendanceLate,
		}).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		if cur, ok := out[r.StudentID]; !ok || r.Date.After(cur) {
			out[r.StudentID] = r.Date
		}
	}
	return out, nil
}

func managedClasses(db *gorm.DB, users []subscriber) (map[string][]string, []string, error) {
	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.UserID)
	}
	var links []classModel.ClassManagerModel
	if err := db.Select("class_id", "user_id").
		Where("user_id IN ? AND is_deleted = ?", userIDs, false).
		Find(&links).Error; err != nil {
		return nil, nil, err
	}
	byUser := map[string][]string{}
	seen := map[string]struct{}{}
	var classIDs []string
	for _, l := range links {
		byUser[l.UserID] = append(byUser[l.UserID], l.ClassID)
		if _, ok := seen[l.ClassID]; !ok {
			seen[l.ClassID] = struct{}{}
			classIDs = append(classIDs, l.ClassID)
		}
	}
	return byUser, classIDs, nil
}

func (j *Jobs) publish(job string, events []notifService.Event) int {
	if len(events) == 0 {
		log.Printf("[CRON] %s: tidak ada notifikasi", job)
		return 0
	}
	if j.Publisher == nil || !j.Publisher.Publish(events) {
		log.Printf("[CRON] %s: %d event dibuang (antrian penuh)", job, len(events))
		return 0
	}
	log.Printf("[CRON] %s: %d event dikirim ke antrian", job, len(events))
	return len(events)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
