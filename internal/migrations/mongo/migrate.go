package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingsrepo "meetingroom/internal/bookings/repository"
	"meetingroom/internal/migrations/mongo/validators"
	roomsrepo "meetingroom/internal/rooms/repository"
	"meetingroom/pkg/logger"
)

var (
	RoomsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_name_key"),
		},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "capacity", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "is_cancelled", Value: 1},
			{Key: "start_datetime", Value: 1},
			{Key: "end_datetime", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "organizer_email", Value: 1},
			{Key: "start_datetime", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "start_datetime", Value: 1},
		}},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "organizer_name", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().SetName("search_text"),
		},
	}
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists everything the service expects to find in its database.
func Collections() []CollectionDef {
	return []CollectionDef{
		{Name: roomsrepo.CollectionName, Indexes: RoomsIndexes, Validator: validators.RoomValidator},
		{Name: bookingsrepo.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: roomsrepo.LockCollectionName, Validator: validators.RoomLockValidator},
	}
}

// RunMigration creates collections, schema validators and indexes. It is safe
// to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
