package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"refqa_backend/internals/configs"
	attendanceModel "refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	noteModel "refqa_backend/internals/features/notes/model"
	studentModel "refqa_backend/internals/features/students/model"
	syncModel "refqa_backend/internals/features/sync/model"
	userModel "refqa_backend/internals/features/users/user/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// UTCNow dipakai sebagai gorm NowFunc: semua timestamp disimpan UTC.
func UTCNow() time.Time {
	return time.Now().UTC()
}

func ConnectDB() {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	// DATABASE_URL menang kalau diset (Railway / docker-compose)
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		sslmode := getenv("DB_SSLMODE", "require")
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=refqa_sync&options=-c statement_timeout=15000",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			getenv("DB_PORT", "5432"),
			os.Getenv("DB_NAME"),
			sslmode,
		)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger:  configs.NewGormLogger(),
		NowFunc: UTCNow,
	})
	if err != nil {
		log.Fatalf("❌ Gagal konek DB: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(configs.GetEnvInt("DB_MAX_OPEN_CONNS", 20))
	sqlDB.SetMaxIdleConns(configs.GetEnvInt("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	// jalankan ringan supaya koneksi/pool “keisi” & siap
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
			return
		}
		// query yang paling sering dipakai: scope kelas pengurus
		var n int64
		if err := DB.Model(&classModel.ClassManagerModel{}).Where("is_deleted = ?", false).Count(&n).Error; err != nil {
			log.Printf("warm-up query err: %v", err)
		}
	}()
}

// Models mendaftar semua tabel yang dikelola aplikasi (urutan = urutan migrasi).
func Models() []any {
	return []any{
		&classModel.ClassModel{},
		&userModel.UserModel{},
		&userModel.NotificationPreferenceModel{},
		&classModel.ClassManagerModel{},
		&studentModel.StudentModel{},
		&attendanceModel.AttendanceSessionModel{},
		&attendanceModel.AttendanceRecordModel{},
		&noteModel.NoteModel{},
		&syncModel.ChangeLogModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
