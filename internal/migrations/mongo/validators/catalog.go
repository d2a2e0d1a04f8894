package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"title"},
		"additionalProperties": true,
		"properties": bson.M{
			"title":    bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"category": bson.M{"bsonType": "string"},
			"price":    bson.M{"bsonType": []string{"int", "long", "double", "decimal"}, "minimum": 0},
			"duration": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"isActive": bson.M{"bsonType": "bool"},
		},
	},
}

var TechnicianValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "phone", "createdAt"},
		"additionalProperties": true,
		"properties": bson.M{
			"name":  bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"phone": bson.M{"bsonType": "string"},
			// legacy documents store skills as a comma separated string
			"skills": bson.M{
				"bsonType": []string{"array", "string"},
			},
			"active":    bson.M{"bsonType": "bool"},
			"verified":  bson.M{"bsonType": "bool"},
			"createdAt": bson.M{"bsonType": "date"},
		},
	},
}
