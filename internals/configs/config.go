package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

const (
	ConflictPolicyLWW         = "lww"
	ConflictPolicyRejectStale = "reject_stale"
)

var (
	JWTSecret string
	RedisURL  string

	NotifyQueueSize int
	NotifyWorkers   int

	SyncConflictPolicy string
	SyncPullOverlap    time.Duration

	CronEnabled bool
	CronMorning string
	CronEvening string
	CronPrune   string

	ChangeLogRetentionDays int

	CorsAllowOrigins string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	RedisURL = GetEnv("REDIS_URL")

	NotifyQueueSize = GetEnvInt("NOTIFY_QUEUE_SIZE", 256)
	NotifyWorkers = GetEnvInt("NOTIFY_WORKERS", 2)

	SyncConflictPolicy = strings.ToLower(GetEnv("SYNC_CONFLICT_POLICY", ConflictPolicyLWW))
	if SyncConflictPolicy != ConflictPolicyLWW && SyncConflictPolicy != ConflictPolicyRejectStale {
		log.Printf("⚠️ SYNC_CONFLICT_POLICY=%q tidak dikenal, pakai %q", SyncConflictPolicy, ConflictPolicyLWW)
		SyncConflictPolicy = ConflictPolicyLWW
	}

	// multi instance (Redis aktif): tier di instance lain tidak kelihatan di
	// daftar in-flight lokal, mundurkan checkpoint selama statement_timeout
	defaultOverlap := time.Duration(0)
	if RedisURL != "" {
		defaultOverlap = 15 * time.Second
	}
	SyncPullOverlap = GetEnvDuration("SYNC_PULL_OVERLAP", defaultOverlap)

	CronEnabled = GetEnvBool("CRON_ENABLED", true)
	CronMorning = GetEnv("CRON_MORNING", "0 8 * * *")
	CronEvening = GetEnv("CRON_EVENING", "0 20 * * *")
	CronPrune = GetEnv("CRON_PRUNE", "15 2 * * *")
	ChangeLogRetentionDays = GetEnvInt("CHANGE_LOG_RETENTION_DAYS", 90)

	CorsAllowOrigins = GetEnv("CORS_ALLOW_ORIGINS", "*")

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	} else {
		log.Println("✅ JWT_SECRET berhasil dimuat.")
	}
	if RedisURL == "" {
		log.Println("[INFO] REDIS_URL kosong, realtime hanya untuk instance ini")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s=%q bukan angka, pakai default %d", key, v, def)
		return def
	}
	return n
}

func GetEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	if GetEnvBool("DB_LOG_QUERIES", false) {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	l.LogLevel = level
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
