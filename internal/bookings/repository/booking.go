package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	bookingserrors "meetingroom/internal/bookings/errors"
	"meetingroom/pkg/config"
	mongotx "meetingroom/pkg/db/mongo"
	"meetingroom/pkg/interval"
	"meetingroom/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// Update rewrites the mutable fields of a non-cancelled booking.
	Update(ctx context.Context, id string, booking *model.Booking) error
	// Cancel flips is_cancelled only if it is still false, and returns the
	// cancelled document.
	Cancel(ctx context.Context, id string, at time.Time, reason *string) (*model.Booking, error)
	FindActiveOverlapping(ctx context.Context, roomID string, iv interval.Interval) ([]*model.Booking, error)
	CountActiveStartingAfter(ctx context.Context, roomID string, after time.Time) (int64, error)
	Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	booking.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	set := bson.M{
		"room_id":           booking.RoomID,
		"title":             booking.Title,
		"organizer_name":    booking.OrganizerName,
		"organizer_email":   booking.OrganizerEmail,
		"participant_count": booking.ParticipantCount,
		"start_datetime":    booking.StartDatetime,
		"end_datetime":      booking.EndDatetime,
		"updated_at":        booking.UpdatedAt,
	}
	unset := bson.M{}
	setOptional(set, unset, "description", booking.Description)
	setOptional(set, unset, "notes", booking.Notes)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "is_cancelled": false}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrCancelled(ctx, objectID)
	}
	return nil
}

func setOptional(set, unset bson.M, key string, value *string) {
	if value != nil {
		set[key] = *value
		return
	}
	unset[key] = ""
}

func (r *mongoBookingRepository) Cancel(ctx context.Context, id string, at time.Time, reason *string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	at = at.UTC().Truncate(time.Millisecond)
	set := bson.M{
		"is_cancelled": true,
		"cancelled_at": at,
		"updated_at":   at,
	}
	if reason != nil {
		set["cancellation_reason"] = *reason
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID, "is_cancelled": false},
		bson.M{"$set": set},
		opts,
	).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrCancelled(ctx, objectID)
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return &booking, nil
}

// missOrCancelled explains why a guarded write matched nothing.
func (r *mongoBookingRepository) missOrCancelled(ctx context.Context, objectID primitive.ObjectID) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to check booking: %w", err)
	}
	if count == 0 {
		return bookingserrors.ErrNotFound
	}
	return bookingserrors.ErrAlreadyCancelled
}

func (r *mongoBookingRepository) FindActiveOverlapping(ctx context.Context, roomID string, iv interval.Interval) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_id":        roomID,
		"is_cancelled":   false,
		"start_datetime": bson.M{"$lt": iv.End},
		"end_datetime":   bson.M{"$gt": iv.Start},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_datetime", Value: 1}})

	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) CountActiveStartingAfter(ctx context.Context, roomID string, after time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"room_id":        roomID,
		"is_cancelled":   false,
		"start_datetime": bson.M{"$gt": after},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count upcoming bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	direction := 1
	if filter.Descending {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "start_datetime", Value: direction},
		{Key: "_id", Value: direction},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}

	return r.find(ctx, BuildFilter(filter), opts)
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, BuildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// BuildFilter translates a BookingFilter into a Mongo query. The text term is
// matched literally.
func BuildFilter(f model.BookingFilter) bson.M {
	filter := bson.M{}

	if !f.IncludeCancelled {
		filter["is_cancelled"] = false
	}
	if f.RoomID != "" {
		filter["room_id"] = f.RoomID
	}
	if f.OrganizerEmail != "" {
		filter["organizer_email"] = strings.ToLower(f.OrganizerEmail)
	}

	if f.StartsFrom != nil || f.StartsBefore != nil {
		start := bson.M{}
		if f.StartsFrom != nil {
			start["$gte"] = *f.StartsFrom
		}
		if f.StartsBefore != nil {
			start["$lt"] = *f.StartsBefore
		}
		filter["start_datetime"] = start
	}

	if f.Text != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Text), Options: "i"}
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"organizer_name": pattern},
			{"description": pattern},
		}
	}

	return filter
}
