package main

import (
	"context"
	"flag"
	"os"
	"time"

	"log/slog"

	"github.com/lucentgarden/tradehub/migration"
	"github.com/lucentgarden/tradehub/tradehub"
	"github.com/lucentgarden/tradehub/tradehub/database"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
	"github.com/lucentgarden/tradehub/tradehub/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path to config file")
		dataDir    = flag.String("data", "data", "directory with JSON dump files")
		mongoURI   = flag.String("mongo-uri", "", "legacy MongoDB connection string (optional)")
		mongoName  = flag.String("mongo-db", "tradehub", "legacy MongoDB database name")
	)
	flag.Parse()

	slog.SetDefault(slog.New(logger.NewHandler(slog.LevelInfo)))

	cfg, err := tradehub.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

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

	importer := migration.NewImporter(repositories.NewCatalogRepository(db.BunDB()), *dataDir)

	if *mongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
		if err != nil {
			slog.Error("Failed to connect to MongoDB", slog.Any("error", err))
			os.Exit(1)
		}
		defer client.Disconnect(ctx)
		importer.UseMongo(client, *mongoName)
	}

	if err := importer.ImportAll(ctx); err != nil {
		slog.Error("Catalog import failed", slog.Any("error", err))
		os.Exit(1)
	}
}
