package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"refqa_backend/internals/configs"
	database "refqa_backend/internals/databases"
	"refqa_backend/internals/features/notifications/scheduler"
	notifService "refqa_backend/internals/features/notifications/service"
	"refqa_backend/internals/features/realtime/hub"
	syncService "refqa_backend/internals/features/sync/service"
	helper "refqa_backend/internals/helpers"
	middlewares "refqa_backend/internals/middlewares"
	routes "refqa_backend/internals/route"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		BodyLimit:               16 * 1024 * 1024, // batch sync offline bisa besar
		ErrorHandler:            helper.ErrorHandler,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	if configs.GetEnvBool("DB_AUTO_MIGRATE", false) {
		if err := database.AutoMigrate(database.DB); err != nil {
			log.Fatalf("❌ AutoMigrate gagal: %v", err)
		}
	}
	database.WarmUpQueries()

	// 📡 realtime: hub lokal, + Redis kalau multi instance
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	wsHub := hub.New()
	var emitter hub.Emitter = wsHub
	if configs.RedisURL != "" {
		client, err := hub.ConnectRedis(rootCtx, configs.RedisURL)
		if err != nil {
			log.Printf("[REALTIME] Redis tidak bisa dipakai, fallback hub lokal: %v", err)
		} else {
			bridge := hub.NewRedisBridge(client, wsHub)
			emitter = bridge
			go func() {
				if err := bridge.Run(rootCtx); err != nil {
					log.Printf("[REALTIME] redis bridge berhenti: %v", err)
				}
			}()
			defer client.Close()
		}
	}

	// 🔔 antrian notifikasi (fire-and-forget dari sync)
	queue := notifService.NewQueue(database.DB, notifService.MultiSender{
		notifService.LogSender{},
		hub.NotificationSender{Emitter: emitter},
	}, configs.NotifyQueueSize)
	queue.Start(configs.NotifyWorkers)

	// ⏱ scheduler setelah DB & antrian siap
	if configs.CronEnabled {
		c, err := scheduler.StartCron(scheduler.NewJobs(database.DB, queue))
		if err != nil {
			log.Fatalf("[CRON] gagal start: %v", err)
		}
		defer c.Stop()
	}

	syncSvc := syncService.NewSyncService(database.DB, queue, emitter, configs.SyncConflictPolicy)
	syncSvc.PullOverlap = configs.SyncPullOverlap
	log.Printf("[SYNC] conflict policy=%s pull overlap=%s", syncSvc.ConflictPolicy, syncSvc.PullOverlap)

	// ✅ Routes
	routes.SetupRoutes(app, routes.Deps{
		DB:   database.DB,
		Sync: syncSvc,
		Hub:  wsHub,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 30 * time.Second
	app.Server().WriteTimeout = 60 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	// Start server non-blocking
	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: HTTP → antrian notifikasi → DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	stopBackground()
	queue.Close()

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
