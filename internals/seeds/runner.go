package seeds

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"refqa_backend/internals/constants"
	syncService "refqa_backend/internals/features/sync/service"
	helper "refqa_backend/internals/helpers"

	"gopkg.in/yaml.v3"
)

// SystemUserID dicatat sebagai user_id di sync_change_logs untuk data seed.
const SystemUserID = "system"

type ClassSeed struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Grade string `yaml:"grade"`
}

type UserSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Role     string `yaml:"role"`
	IsActive *bool  `yaml:"isActive"`
}

type ManagerSeed struct {
	ID      string `yaml:"id"`
	ClassID string `yaml:"classId"`
	UserID  string `yaml:"userId"`
}

type StudentSeed struct {
	ID        string `yaml:"id"`
	ClassID   string `yaml:"classId"`
	Name      string `yaml:"name"`
	Phone     string `yaml:"phone"`
	Address   string `yaml:"address"`
	Birthdate string `yaml:"birthdate"`
}

// SeedFile: isi seed.yaml.
type SeedFile struct {
	Classes  []ClassSeed   `yaml:"classes"`
	Users    []UserSeed    `yaml:"users"`
	Managers []ManagerSeed `yaml:"managers"`
	Students []StudentSeed `yaml:"students"`
}

func LoadSeedFile(path string) (*SeedFile, error) {
	log.Println("📥 Membaca file:", path)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("baca seed: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &f, nil
}

// Changes mengubah seed jadi change sync (UPDATE = upsert).
// UUID deterministik, jadi menjalankan seed berulang kali aman.
func (f *SeedFile) Changes() []syncService.Change {
	var out []syncService.Change
	add := func(kind syncService.EntityKind, id string, payload map[string]any) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		out = append(out, syncService.Change{
			UUID:       fmt.Sprintf("seed:%s:%s", strings.ToLower(kind.String()), id),
			EntityType: kind.String(),
			Kind:       kind,
			EntityID:   id,
			Operation:  "UPDATE",
			Payload:    payload,
		})
	}

	for _, c := range f.Classes {
		p := map[string]any{"name": c.Name}
		putString(p, "grade", c.Grade)
		add(syncService.KindClass, c.ID, p)
	}
	for _, u := range f.Users {
		role := strings.ToUpper(strings.TrimSpace(u.Role))
		if role == "" {
			role = constants.RoleServant
		}
		p := map[string]any{"name": u.Name, "role": role}
		putString(p, "email", strings.ToLower(u.Email))
		putString(p, "phone", u.Phone)
		if u.IsActive != nil {
			p["isActive"] = *u.IsActive
		}
		add(syncService.KindUser, u.ID, p)
	}
	for _, m := range f.Managers {
		add(syncService.KindClassManager, m.ID, map[string]any{"classId": m.ClassID, "userId": m.UserID})
	}
	for _, s := range f.Students {
		p := map[string]any{"classId": s.ClassID, "name": s.Name}
		putString(p, "phone", s.Phone)
		putString(p, "address", s.Address)
		putString(p, "birthdate", s.Birthdate)
		add(syncService.KindStudent, s.ID, p)
	}
	return out
}

func putString(p map[string]any, key, v string) {
	if v = strings.TrimSpace(v); v != "" {
		p[key] = v
	}
}

// Run menerapkan seed lewat sync engine (urutan tier, transaksi, ledger sama dengan push device).
func Run(ctx context.Context, svc *syncService.SyncService, f *SeedFile) error {
	changes := f.Changes()
	if len(changes) == 0 {
		log.Println("ℹ️ Seed kosong, tidak ada yang diproses")
		return nil
	}
	who := helper.Identity{UserID: SystemUserID, Role: constants.RoleAdmin}
	resp := svc.Push(ctx, who, changes)

	log.Printf("✅ Seed: %d diproses, %d gagal", len(resp.ProcessedUUIDs), len(resp.FailedUUIDs))
	if len(resp.FailedUUIDs) > 0 {
		for _, fc := range resp.FailedUUIDs {
			log.Printf("❌ %s: %s", fc.UUID, fc.Error)
		}
		return fmt.Errorf("%d seed gagal", len(resp.FailedUUIDs))
	}
	return nil
}
