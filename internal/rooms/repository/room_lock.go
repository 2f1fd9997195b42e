package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"meetingroom/pkg/config"
	mongotx "meetingroom/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LockCollectionName = "Room_locks"
)

// RoomLocker serializes mutations that touch the same rooms. fn runs with a
// context that must be used for every repository call it makes, and may run
// more than once if the store retries the unit of work.
type RoomLocker interface {
	WithRoomLock(ctx context.Context, roomIDs []string, fn func(ctx context.Context) error) error
}

type mongoRoomLocker struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

// NewMongoRoomLocker runs fn inside a transaction that first writes one lock
// document per room. Two transactions writing the same lock document cannot
// both commit; the loser gets a WriteConflict and is retried from scratch,
// at which point it observes the winner's bookings.
func NewMongoRoomLocker(cfg *config.Config) RoomLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomLocker{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.TransactionTimeout),
	}
}

func (l *mongoRoomLocker) WithRoomLock(ctx context.Context, roomIDs []string, fn func(ctx context.Context) error) error {
	ids := LockOrder(roomIDs)

	if err := l.ensureLocks(ctx, ids); err != nil {
		return err
	}

	return l.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		now := time.Now().UTC()
		for _, id := range ids {
			_, err := l.collection.UpdateOne(sessCtx,
				bson.M{"_id": id},
				bson.M{
					"$inc": bson.M{"version": 1},
					"$set": bson.M{"locked_at": now},
				},
			)
			if err != nil {
				// Returned unwrapped so WithTransaction can see the
				// TransientTransactionError label.
				return err
			}
		}
		return fn(sessCtx)
	})
}

// ensureLocks creates missing lock documents outside the transaction, where a
// concurrent insert of the same id surfaces as a harmless duplicate key.
func (l *mongoRoomLocker) ensureLocks(ctx context.Context, ids []string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	for _, id := range ids {
		_, err := l.collection.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$setOnInsert": bson.M{"version": int64(0), "created_at": now}},
			options.Update().SetUpsert(true),
		)
		if err != nil && !mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("failed to prepare room lock %s: %w", id, err)
		}
	}
	return nil
}

// LockOrder dedupes ids and sorts them so every caller acquires locks in the
// same order.
func LockOrder(roomIDs []string) []string {
	ids := make([]string, 0, len(roomIDs))
	for _, id := range roomIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
