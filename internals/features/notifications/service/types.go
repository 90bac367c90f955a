// internals/features/notifications/service/types.go
package service

// Jenis notifikasi, sama dengan nama kolom preferensi (camelCase).
const (
	TypeNoteAdded          = "noteAdded"
	TypeNoteUpdated        = "noteUpdated"
	TypeAttendanceRecorded = "attendanceRecorded"
	TypeBirthdayReminder   = "birthdayReminder"
	TypeInactiveStudent    = "inactiveStudent"
	TypeNewUserRegistered  = "newUserRegistered"
)

// Event adalah fakta domain yang belum di-resolve ke penerima.
// Event dari sync membawa ActorUserID (tidak ikut dinotifikasi);
// event dari job membawa TargetUserID.
type Event struct {
	Type         string
	EntityID     string
	StudentID    string
	ClassID      string
	ActorUserID  string
	TargetUserID string
	Meta         map[string]string
}

// Message adalah notifikasi final untuk satu user.
type Message struct {
	UserID   string            `json:"userId"`
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	FcmToken string            `json:"-"`
}
