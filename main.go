package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lucentgarden/tradehub/backend/handlers"
	"github.com/lucentgarden/tradehub/backend/middleware"
	"github.com/lucentgarden/tradehub/tradehub"
	"github.com/lucentgarden/tradehub/tradehub/catalog"
	"github.com/lucentgarden/tradehub/tradehub/database"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
	"github.com/lucentgarden/tradehub/tradehub/logger"
	"github.com/lucentgarden/tradehub/tradehub/trading"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := tradehub.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	customHandler := logger.NewHandler(cfg.Log.Level)
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting TradeHub",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	slog.Info("Connecting to database...", slog.String("type", "db"))
	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("Database ready", slog.String("type", "db"))

	catalogRepo := repositories.NewCatalogRepository(db.BunDB())
	tradeRepo := repositories.NewTradeRepository(db.BunDB())
	statsRepo := repositories.NewUserStatsRepository(db.BunDB())
	notificationRepo := repositories.NewNotificationRepository(db.BunDB())

	catalogAccessor, err := catalog.NewCachedAccessor(
		catalogRepo,
		cfg.Trade.CatalogCacheSize,
		cfg.Trade.CatalogCacheTTL(),
		catalog.SystemClock{},
	)
	if err != nil {
		slog.Error("Failed to build catalog accessor", slog.Any("error", err))
		os.Exit(1)
	}

	notifier := trading.NewNotifier()
	effects := trading.NewStoreSideEffects(statsRepo, notificationRepo)
	manager := trading.NewManager(tradeRepo, catalogAccessor, notifier, effects, catalog.SystemClock{}, trading.ManagerConfig{
		ListingTTL:      cfg.Trade.ListingTTL(),
		MaxItemsPerSide: cfg.Trade.MaxItemsPerSide,
	})

	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	sweeper := trading.NewSweeper(manager, cfg.Trade.SweepInterval())
	sweeper.Start(sweepCtx)

	webApp := &handlers.WebApp{
		Manager:       manager,
		Catalog:       catalogAccessor,
		Notifications: notificationRepo,
		Stats:         statsRepo,
		DB:            db,
		Version:       version,
	}

	app := fiber.New(fiber.Config{
		AppName:      "TradeHub API",
		ServerHeader: "TradeHub",
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
		ErrorHandler: middleware.CustomErrorHandler,
	})

	app.Use(recover.New())
	app.Use(compress.New())
	if len(cfg.HTTP.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.HTTP.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, X-User-Id, X-User-Name, X-User-Avatar",
		}))
	}
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.OptionalAuth())
	app.Use(middleware.LoggingMiddleware())

	handlers.SetupRoutes(app, webApp)

	go func() {
		slog.Info("HTTP server listening",
			slog.String("type", "http"),
			slog.String("addr", cfg.HTTP.Addr),
		)
		if err := app.Listen(cfg.HTTP.Addr); err != nil {
			slog.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("Shutting down...", slog.String("type", "sys"))

	stopSweeps()
	sweeper.Stop()
	notifier.Close()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("HTTP shutdown failed", slog.Any("error", err))
	}

	slog.Info("Shutdown complete", slog.String("type", "sys"))
}
