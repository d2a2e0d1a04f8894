package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dispatch/internal/migrations/mongo/validators"
	"dispatch/internal/schema"
	"dispatch/pkg/logger"
)

var (
	ServicesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: schema.FieldTitle, Value: 1}}},
		{Keys: bson.D{{Key: schema.FieldIsActive, Value: 1}}},
	}

	TechniciansIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: schema.FieldActive, Value: 1},
			{Key: schema.FieldName, Value: 1},
		}},
		{Keys: bson.D{{Key: schema.FieldPhone, Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: schema.FieldCreatedAt, Value: -1}}},
		{Keys: bson.D{
			{Key: schema.FieldStatus, Value: 1},
			{Key: schema.FieldCreatedAt, Value: -1},
		}},
		{Keys: bson.D{{Key: schema.FieldTechnicianID, Value: 1}}},
	}

	AccountsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: schema.FieldEmail, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: schema.FieldRole, Value: 1}}},
	}
)

type Definition struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the admin backend owns.
func Collections() map[string]Definition {
	return map[string]Definition{
		schema.CollectionServices: {
			Indexes:   ServicesIndexes,
			Validator: validators.ServiceValidator,
		},
		schema.CollectionTechnicians: {
			Indexes:   TechniciansIndexes,
			Validator: validators.TechnicianValidator,
		},
		schema.CollectionBookings: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		schema.CollectionAccounts: {
			Indexes:   AccountsIndexes,
			Validator: validators.AccountValidator,
		},
		schema.CollectionUsers: {
			Indexes:   UsersIndexes,
			Validator: validators.UserValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

// ensureCollection uses the moderate validation level so existing documents
// that predate the validator can still be updated.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().
			SetValidator(validator).
			SetValidationLevel("moderate")
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
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
