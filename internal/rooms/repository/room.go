package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	roomserrors "meetingroom/internal/rooms/errors"
	"meetingroom/pkg/config"
	mongotx "meetingroom/pkg/db/mongo"
	"meetingroom/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Rooms"
)

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindByNameKey(ctx context.Context, nameKey string) (*model.Room, error)
	FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Room, error)
	FindActive(ctx context.Context, minCapacity int) ([]*model.Room, error)
	Count(ctx context.Context, activeOnly bool) (int64, error)
	Update(ctx context.Context, id string, room *model.Room) error
}

type mongoRoomRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomRepository(cfg *config.Config) RoomRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRoomRepository) Create(ctx context.Context, room *model.Room) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	room.NameKey = model.RoomNameKey(room.Name)
	room.CreatedAt = now
	room.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, room)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return roomserrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		room.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoRoomRepository) FindByNameKey(ctx context.Context, nameKey string) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"name_key": nameKey})
}

func (r *mongoRoomRepository) findOne(ctx context.Context, filter bson.M) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, filter).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, roomserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

func activeFilter(activeOnly bool) bson.M {
	if !activeOnly {
		return bson.M{}
	}
	// Documents written before is_active existed count as active.
	return bson.M{"is_active": bson.M{"$ne": false}}
}

func (r *mongoRoomRepository) FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, activeFilter(activeOnly), opts)
}

func (r *mongoRoomRepository) FindActive(ctx context.Context, minCapacity int) ([]*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := activeFilter(true)
	if minCapacity > 0 {
		filter["capacity"] = bson.M{"$gte": minCapacity}
	}

	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *mongoRoomRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Room, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := make([]*model.Room, 0)
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

func (r *mongoRoomRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, activeFilter(activeOnly))
	if err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	return count, nil
}

func (r *mongoRoomRepository) Update(ctx context.Context, id string, room *model.Room) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}

	room.NameKey = model.RoomNameKey(room.Name)
	room.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	set := bson.M{
		"name":       room.Name,
		"name_key":   room.NameKey,
		"capacity":   room.Capacity,
		"location":   room.Location,
		"start_time": room.StartTime,
		"end_time":   room.EndTime,
		"is_active":  room.Active(),
		"updated_at": room.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if room.Description != nil {
		set["description"] = *room.Description
	} else {
		update["$unset"] = bson.M{"description": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return roomserrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to update room: %w", err)
	}
	if result.MatchedCount == 0 {
		return roomserrors.ErrNotFound
	}
	return nil
}
