package main

import (
	"context"
	"time"

	mongoMigration "meetingroom/internal/migrations/mongo"
	"meetingroom/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	if cfg.StoreDriver != config.StoreDriverMongo {
		cfg.Log.Info("Store driver is not mongo, nothing to migrate", "store_driver", cfg.StoreDriver)
		return
	}

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
