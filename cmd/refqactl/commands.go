package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"refqa_backend/internals/configs"
	database "refqa_backend/internals/databases"
	"refqa_backend/internals/features/notifications/scheduler"
	notifService "refqa_backend/internals/features/notifications/service"
	syncService "refqa_backend/internals/features/sync/service"
	"refqa_backend/internals/seeds"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "AutoMigrate semua tabel",
		RunE: func(cmd *cobra.Command, args []string) error {
			database.ConnectDB()
			if err := database.AutoMigrate(database.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("✅ Migrasi selesai")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert kelas, user, pengelola, dan murid dari file YAML",
		Example: `  refqactl seed --file internals/seeds/seed.example.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seeds.LoadSeedFile(file)
			if err != nil {
				return err
			}
			database.ConnectDB()
			svc := syncService.NewSyncService(database.DB, nil, nil, configs.SyncConflictPolicy)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			return seeds.Run(ctx, svc, f)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "path file seed YAML")
	return cmd
}

func jobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Jalankan job terjadwal sekali (tanpa cron)",
	}

	var morning, evening bool
	birthday := &cobra.Command{
		Use:   "birthday",
		Short: "Cek ulang tahun murid (--morning: hari ini, --evening: besok)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if morning == evening {
				return errors.New("pilih salah satu: --morning atau --evening")
			}
			return runJob(cmd.Context(), func(ctx context.Context, j *scheduler.Jobs) (int, error) {
				return j.CheckBirthdays(ctx, morning)
			})
		},
	}
	birthday.Flags().BoolVar(&morning, "morning", false, "ulang tahun hari ini")
	birthday.Flags().BoolVar(&evening, "evening", false, "ulang tahun besok")

	inactive := &cobra.Command{
		Use:   "inactive",
		Short: "Cek murid yang lama tidak hadir",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd.Context(), func(ctx context.Context, j *scheduler.Jobs) (int, error) {
				return j.CheckInactiveStudents(ctx)
			})
		},
	}

	var days int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Hapus sync change log lama",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd.Context(), func(ctx context.Context, j *scheduler.Jobs) (int, error) {
				n, err := j.PruneChangeLogs(ctx, days)
				return int(n), err
			})
		},
	}
	prune.Flags().IntVar(&days, "days", 90, "retensi (hari)")

	cmd.AddCommand(birthday, inactive, prune)
	return cmd
}

// runJob: antrian dijalankan lokal lalu di-drain sebelum exit.
func runJob(parent context.Context, fn func(ctx context.Context, j *scheduler.Jobs) (int, error)) error {
	database.ConnectDB()

	queue := notifService.NewQueue(database.DB, notifService.LogSender{}, configs.NotifyQueueSize)
	queue.Start(1)
	defer queue.Close()

	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	n, err := fn(ctx, scheduler.NewJobs(database.DB, queue))
	if err != nil {
		return err
	}
	fmt.Printf("✅ selesai: %d\n", n)
	return nil
}
