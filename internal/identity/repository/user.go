package repository

import (
	"context"
	"errors"
	"fmt"

	identityerrors "dispatch/internal/identity/errors"
	"dispatch/internal/schema"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	"dispatch/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository reads and writes the role records under users/{uid}.
type UserRepository interface {
	FindByUID(ctx context.Context, uid string) (*model.UserProfile, error)
	Upsert(ctx context.Context, profile *model.UserProfile) error
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(schema.CollectionUsers),
	}
}

func (r *mongoUserRepository) FindByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identityerrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find user profile: %w", mongodb.Classify(err))
	}
	return schema.DecodeUserProfile(doc)
}

// Upsert replaces the whole profile document, creating it when absent.
func (r *mongoUserRepository) Upsert(ctx context.Context, profile *model.UserProfile) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": profile.UID}, schema.EncodeUserProfile(profile), opts)
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", mongodb.Classify(err))
	}
	return nil
}
