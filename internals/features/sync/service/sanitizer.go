package service

import (
	"math"
	"strings"
	"time"
)

// Layout yang diterima dari client (Dart DateTime.toIso8601String, JS toISOString, tanggal saja).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// IsTimestampKey: suffix "At", atau "date"/"birthdate".
func IsTimestampKey(key string) bool {
	return strings.HasSuffix(key, "At") || key == "date" || key == "birthdate"
}

// ParseTimestamp mem-parse string waktu dari client.
// Presisi dipotong ke milidetik; tanpa zona dianggap UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), true
		}
	}
	return time.Time{}, false
}

// SanitizePayload mengubah map JSON longgar jadi nilai siap simpan.
// Tidak mengubah input. Nilai waktu yang gagal di-parse dibiarkan apa adanya.
func SanitizePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case string:
			if IsTimestampKey(key) {
				if t, ok := ParseTimestamp(v); ok {
					out[key] = t
					continue
				}
			}
			out[key] = v
		case float64:
			// angka JSON bulat → int64 supaya cocok dengan kolom integer
			if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
				out[key] = int64(v)
				continue
			}
			out[key] = v
		default:
			out[key] = value
		}
	}
	return out
}
