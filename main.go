package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"paymordomo/config"
	"paymordomo/gamification"
	"paymordomo/handlers"
	"paymordomo/kv"
	"paymordomo/objstore"
	"paymordomo/services"
	"paymordomo/session"
	"paymordomo/store"
	"paymordomo/utils"
	"paymordomo/workers"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	logger, err := utils.NewLogger(cfg)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()
	if !dotenv {
		sugar.Info("No .env file found, reading environment variables directly")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rows store.Rows
	if cfg.InMemory() {
		sugar.Warn("DATABASE_URL not set, rows are kept in process memory and lost on exit")
		rows = store.NewMemory()
	} else {
		db, err := utils.ConnectDB(ctx, cfg.DatabaseURL, cfg.DBRetries, logger)
		if err != nil {
			sugar.Fatalf("failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(store.Models()...); err != nil {
			sugar.Fatalf("failed to migrate database: %v", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		rows = store.New(db)
	}

	var cache kv.Store
	if cfg.RedisURL != "" {
		r, err := kv.NewRedis(cfg.RedisURL, cfg.KVNamespace, logger)
		if err != nil {
			sugar.Fatalf("failed to configure redis: %v", err)
		}
		if err := r.Ping(ctx); err != nil {
			sugar.Fatalf("failed to reach redis: %v", err)
		}
		defer r.Close()
		cache = r
	} else {
		sugar.Warn("REDIS_URL not set, sessions are kept in process memory")
		cache = kv.NewMemory()
	}

	var objects objstore.Store
	if cfg.UseR2() {
		objects, err = objstore.NewR2(ctx, cfg.R2)
		if err != nil {
			sugar.Fatalf("failed to initialize R2 client: %v", err)
		}
	} else {
		objects, err = objstore.NewDisk(cfg.UploadDir, "/uploads")
		if err != nil {
			sugar.Fatalf("failed to ensure upload dir: %v", err)
		}
	}

	sessions := session.NewService(rows, cache, session.Config{Secret: cfg.JWTSecret, Expiry: cfg.JWTExpiry}, logger.Named("session"))
	engine := gamification.NewEngine(gamification.StoreSource{Rows: rows}, session.ContextProvider{}, logger.Named("badges"))

	resync := workers.NewBadgeResync(rows, engine, logger.Named("resync"))
	var uploads objstore.Store
	if !cfg.UseR2() {
		uploads = objects
	}

	app := handlers.NewApp(handlers.Deps{
		Sessions:       sessions,
		Transactions:   services.NewTransactionService(rows, engine, objects, logger),
		Goals:          services.NewGoalService(rows, engine, logger),
		Contributions:  services.NewContributionService(rows, engine, logger),
		Dashboard:      services.NewDashboardService(rows, engine, cache, logger),
		Reports:        services.NewReportService(rows),
		Badges:         services.NewBadgeService(rows, engine, logger),
		Log:            logger.Named("http"),
		Resync:         resync,
		Uploads:        uploads,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
	})

	sched, err := resync.Start(ctx, cfg.ResyncInterval)
	if err != nil {
		sugar.Fatalf("failed to start scheduler: %v", err)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			sugar.Errorf("Server error: %v", err)
			stop()
		}
	}()

	logger.Info("✅ Server running", zap.String("port", cfg.Port))
	logger.Info("✅ Badge resync scheduled", zap.Duration("every", cfg.ResyncInterval))
	logger.Info("✅ CORS configured", zap.String("origins", cfg.AllowedOrigins))

	<-ctx.Done()
	sugar.Info("Shutting down server...")
	if err := sched.Shutdown(); err != nil {
		sugar.Warnf("scheduler shutdown: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		sugar.Warnf("server shutdown: %v", err)
	}
}
