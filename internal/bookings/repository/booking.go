package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "dispatch/internal/bookings/errors"
	"dispatch/internal/schema"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	"dispatch/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindRecent(ctx context.Context, limit int) ([]*model.Booking, error)
	AssignTechnician(ctx context.Context, id string, technicianID string) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(schema.CollectionBookings),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, schema.EncodeBooking(booking))
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", mongodb.Classify(err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, bookingserrors.ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc bson.M
	if err := r.collection.FindOne(ctx, schema.IDFilter(id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", mongodb.Classify(err))
	}

	return schema.DecodeBooking(doc)
}

// FindRecent returns the first page of bookings, newest first.
func (r *mongoBookingRepository) FindRecent(ctx context.Context, limit int) ([]*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: schema.FieldCreatedAt, Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", mongodb.Classify(err))
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", mongodb.Classify(err))
	}

	return schema.DecodeAll(docs, schema.DecodeBooking, func(err error) {
		r.cfg.Log.Warn("Skipping malformed booking document", "error", err)
	}), nil
}

// AssignTechnician sets technicianId and status and nothing else. There is
// no precondition on the stored document: concurrent admins race and the
// last write wins.
func (r *mongoBookingRepository) AssignTechnician(ctx context.Context, id string, technicianID string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := schema.AssignmentUpdate(technicianID, model.BookingStatusAssigned)
	result, err := r.collection.UpdateOne(ctx, schema.IDFilter(id), update)
	if err != nil {
		return fmt.Errorf("failed to assign technician: %w", mongodb.Classify(err))
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}
