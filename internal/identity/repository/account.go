package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	identityerrors "dispatch/internal/identity/errors"
	"dispatch/internal/schema"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	"dispatch/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByUID(ctx context.Context, uid string) (*model.Account, error)
	// ResetPassword stores a new hash and re-enables the account.
	ResetPassword(ctx context.Context, uid, passwordHash string) error
	TouchSignIn(ctx context.Context, uid string, at time.Time) error
}

type mongoAccountRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAccountRepository(cfg *config.Config) AccountRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAccountRepository{
		cfg:        cfg,
		collection: db.Collection(schema.CollectionAccounts),
	}
}

func (r *mongoAccountRepository) Create(ctx context.Context, account *model.Account) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if account.UID == "" {
		account.UID = uuid.NewString()
	}
	account.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, schema.EncodeAccount(account)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return identityerrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", mongodb.Classify(err))
	}
	return nil
}

func (r *mongoAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{schema.FieldEmail: email})
}

func (r *mongoAccountRepository) FindByUID(ctx context.Context, uid string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"_id": uid})
}

func (r *mongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc bson.M
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identityerrors.ErrUnknownAccount
		}
		return nil, fmt.Errorf("failed to find account: %w", mongodb.Classify(err))
	}
	return schema.DecodeAccount(doc)
}

func (r *mongoAccountRepository) ResetPassword(ctx context.Context, uid, passwordHash string) error {
	return r.updateOne(ctx, uid, bson.M{
		schema.FieldPasswordHash: passwordHash,
		schema.FieldDisabled:     false,
	})
}

func (r *mongoAccountRepository) TouchSignIn(ctx context.Context, uid string, at time.Time) error {
	return r.updateOne(ctx, uid, bson.M{schema.FieldLastSignInAt: at.UTC()})
}

func (r *mongoAccountRepository) updateOne(ctx context.Context, uid string, set bson.M) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update account: %w", mongodb.Classify(err))
	}
	if result.MatchedCount == 0 {
		return identityerrors.ErrUnknownAccount
	}
	return nil
}
