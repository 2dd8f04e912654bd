package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"studyroom-backend/config"
	"studyroom-backend/internal/database"
	"studyroom-backend/internal/metrics"
	"studyroom-backend/internal/routes"
	"studyroom-backend/internal/scheduler"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(log)

	// 1. Environment
	if err := godotenv.Load(); err != nil {
		log.Warn(".env not found, using process environment")
	}
	cfg := config.Load()

	// 2. Database
	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		log.Error("connect database", "err", err)
		os.Exit(1)
	}
	if config.GetEnvAsBool("DB_AUTO_MIGRATE", true) {
		if err := database.Migrate(db); err != nil {
			log.Error("migrate", "err", err)
			os.Exit(1)
		}
	}

	// 3. Services and HTTP
	c := routes.NewContainer(db, cfg, log)

	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n"}))

	routes.SetupSystemRoutes(app)
	routes.SetupCronRoutes(app, c)
	routes.SetupAttendanceRoutes(app, c)
	routes.SetupReportRoutes(app, c)

	// 4. In-process triggers (optional; an external scheduler can call /api/cron instead)
	sched := scheduler.New(c.Clock.Location(), log)
	err = sched.Add(metrics.JobSync, cfg.Jobs.SyncSchedule, cfg.Jobs.Timeout, func(ctx context.Context) string {
		return string(c.Sync.Run(ctx).Status)
	})
	if err == nil {
		err = sched.Add(metrics.JobWeekly, cfg.Jobs.WeeklySchedule, cfg.Jobs.Timeout, func(ctx context.Context) string {
			return string(c.Weekly.Run(ctx, c.Weekly.PreviousWeekStart()).Status)
		})
	}
	if err != nil {
		log.Error("scheduler", "err", err)
		os.Exit(1)
	}
	sched.Start()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Info("shutting down")
		sched.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error("shutdown", "err", err)
		}
	}()

	log.Info("server ready", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("listen", "err", err)
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.GetEnv("LOG_LEVEL", "info"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
