package repository

import (
	"context"
	"errors"
	"fmt"

	catalogerrors "dispatch/internal/catalog/errors"
	"dispatch/internal/schema"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	"dispatch/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *model.Service) error
	FindByID(ctx context.Context, id string) (*model.Service, error)
	FindAll(ctx context.Context) ([]*model.Service, error)
	Update(ctx context.Context, id string, update *model.ServiceUpdate) error
	SetActive(ctx context.Context, id string, active bool) error
}

type mongoServiceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoServiceRepository(cfg *config.Config) ServiceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoServiceRepository{
		cfg:        cfg,
		collection: db.Collection(schema.CollectionServices),
	}
}

func (r *mongoServiceRepository) Create(ctx context.Context, service *model.Service) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, schema.EncodeService(service))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", mongodb.Classify(err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		service.ID = oid.Hex()
	}
	return nil
}

func (r *mongoServiceRepository) FindByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, catalogerrors.ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc bson.M
	if err := r.collection.FindOne(ctx, schema.IDFilter(id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find service: %w", mongodb.Classify(err))
	}

	return schema.DecodeService(doc)
}

// FindAll is a full collection scan ordered by title. The catalog is small
// and read whole by every lookup join.
func (r *mongoServiceRepository) FindAll(ctx context.Context) ([]*model.Service, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: schema.FieldTitle, Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find services: %w", mongodb.Classify(err))
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read services: %w", mongodb.Classify(err))
	}

	return schema.DecodeAll(docs, schema.DecodeService, func(err error) {
		r.cfg.Log.Warn("Skipping malformed service document", "error", err)
	}), nil
}

func (r *mongoServiceRepository) Update(ctx context.Context, id string, update *model.ServiceUpdate) error {
	if update.Empty() {
		return catalogerrors.ErrEmptyUpdate
	}
	return r.updateOne(ctx, id, schema.ServiceUpdateSet(update))
}

func (r *mongoServiceRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{schema.FieldIsActive: active}})
}

func (r *mongoServiceRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, schema.IDFilter(id), update)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", mongodb.Classify(err))
	}
	if result.MatchedCount == 0 {
		return catalogerrors.ErrNotFound
	}
	return nil
}
