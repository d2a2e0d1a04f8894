package validators

import "go.mongodb.org/mongo-driver/bson"

var AccountValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "email", "passwordHash", "createdAt"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":          bson.M{"bsonType": "string"},
			"email":        bson.M{"bsonType": "string", "minLength": 3, "maxLength": 254},
			"passwordHash": bson.M{"bsonType": "string", "minLength": 59},
			"disabled":     bson.M{"bsonType": "bool"},
			"lastSignInAt": bson.M{"bsonType": "date"},
			"createdAt":    bson.M{"bsonType": "date"},
		},
	},
}

// UserValidator leaves role untyped. The guard treats a malformed role as a
// fault.
var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":       bson.M{"bsonType": "string"},
			"email":     bson.M{"bsonType": "string"},
			"createdAt": bson.M{"bsonType": "date"},
		},
	},
}
