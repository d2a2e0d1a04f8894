package mongo

import (
	"testing"

	"dispatch/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverEveryStore(t *testing.T) {
	collections := Collections()

	for _, name := range []string{
		schema.CollectionServices,
		schema.CollectionTechnicians,
		schema.CollectionBookings,
		schema.CollectionAccounts,
		schema.CollectionUsers,
	} {
		def, ok := collections[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Indexes, name)
		assert.Contains(t, def.Validator, "$jsonSchema", name)
	}
}

func TestAccountsEmailIsUnique(t *testing.T) {
	require.Len(t, AccountsIndexes, 1)
	idx := AccountsIndexes[0]
	assert.Equal(t, bson.D{{Key: schema.FieldEmail, Value: 1}}, idx.Keys)
	require.NotNil(t, idx.Options)
	require.NotNil(t, idx.Options.Unique)
	assert.True(t, *idx.Options.Unique)
}

func TestBookingValidator_AllowsUnassigned(t *testing.T) {
	props := Collections()[schema.CollectionBookings].Validator["$jsonSchema"].(bson.M)["properties"].(bson.M)
	technician := props[schema.FieldTechnicianID].(bson.M)
	assert.ElementsMatch(t, []string{"string", "null"}, technician["bsonType"])
}
