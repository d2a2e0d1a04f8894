package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/schema"
	technicianserrors "dispatch/internal/technicians/errors"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	"dispatch/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TechnicianRepository interface {
	Create(ctx context.Context, technician *model.Technician) error
	FindByID(ctx context.Context, id string) (*model.Technician, error)
	FindAll(ctx context.Context) ([]*model.Technician, error)
	FindActive(ctx context.Context) ([]*model.Technician, error)
	SetFlag(ctx context.Context, id string, field string, value bool) error
}

type mongoTechnicianRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTechnicianRepository(cfg *config.Config) TechnicianRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTechnicianRepository{
		cfg:        cfg,
		collection: db.Collection(schema.CollectionTechnicians),
	}
}

func (r *mongoTechnicianRepository) Create(ctx context.Context, technician *model.Technician) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	technician.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, schema.EncodeTechnician(technician))
	if err != nil {
		return fmt.Errorf("failed to create technician: %w", mongodb.Classify(err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		technician.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTechnicianRepository) FindByID(ctx context.Context, id string) (*model.Technician, error) {
	if id == "" {
		return nil, technicianserrors.ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc bson.M
	err := r.collection.FindOne(ctx, schema.IDFilter(id)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, technicianserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find technician: %w", mongodb.Classify(err))
	}

	return schema.DecodeTechnician(doc)
}

func (r *mongoTechnicianRepository) FindAll(ctx context.Context) ([]*model.Technician, error) {
	return r.find(ctx, bson.M{})
}

// FindActive returns every technician with active == true. Missing or
// non-boolean flags never match.
func (r *mongoTechnicianRepository) FindActive(ctx context.Context) ([]*model.Technician, error) {
	return r.find(ctx, bson.M{schema.FieldActive: true})
}

func (r *mongoTechnicianRepository) find(ctx context.Context, filter bson.M) ([]*model.Technician, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: schema.FieldName, Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find technicians: %w", mongodb.Classify(err))
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read technicians: %w", mongodb.Classify(err))
	}

	return schema.DecodeAll(docs, schema.DecodeTechnician, func(err error) {
		r.cfg.Log.Warn("Skipping malformed technician document", "error", err)
	}), nil
}

func (r *mongoTechnicianRepository) SetFlag(ctx context.Context, id string, field string, value bool) error {
	if field != schema.FieldActive && field != schema.FieldVerified {
		return fmt.Errorf("unsupported technician flag %q", field)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, schema.IDFilter(id), bson.M{"$set": bson.M{field: value}})
	if err != nil {
		return fmt.Errorf("failed to update technician: %w", mongodb.Classify(err))
	}
	if result.MatchedCount == 0 {
		return technicianserrors.ErrNotFound
	}
	return nil
}
