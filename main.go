package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"club-platform/config"
	"club-platform/handlers"
	"club-platform/metrics"
	"club-platform/middleware"
	"club-platform/models"
	"club-platform/utils"
	"club-platform/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: config.NewGormLogger(cfg.SlowQueryThreshold),
	})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	metrics.Register()

	deps := handlers.NewDeps(db, cfg.CheckpointXP, cfg.DefaultMaxTeamSize, cfg.JoinCodeAttempts)
	if cfg.R2.Enabled() {
		store, err := utils.NewR2Store(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket, cfg.R2.CDNBaseURL)
		if err != nil {
			log.Fatal("failed to initialize R2 client: ", err)
		}
		deps.Uploads = store
		log.Printf("✅ Checkpoint attachments go to R2 bucket %s", cfg.R2.Bucket)
	} else {
		log.Println("⚠️  R2 not configured, checkpoint attachments are disabled")
	}

	sched, err := deps.Events.StartLifecycleScheduler(cfg.LifecycleInterval)
	if err != nil {
		log.Fatal("failed to start lifecycle scheduler: ", err)
	}

	if cfg.IdentitySyncURL != "" {
		syncWorker := workers.NewMemberSyncWorker(db, utils.HTTPClient, cfg.IdentitySyncURL, cfg.IdentitySyncPath, cfg.IdentitySyncToken, cfg.MemberSyncEvery)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  IDENTITY_SYNC_URL not set, member sync worker disabled")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: utils.MaxAttachmentSize + 1024*1024,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.OriginsHeader(),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Name, X-User-Email",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID, Retry-After",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health and metrics stay outside gateway auth.
	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))
	handlers.SetupRoutes(app, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ CORS configured for origins: %s", cfg.OriginsHeader())

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("⚠️  HTTP shutdown: %v", err)
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("⚠️  scheduler shutdown: %v", err)
	}
}
