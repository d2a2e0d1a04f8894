package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"serviceId",
			"status",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"serviceId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			// null until a technician is assigned
			"technicianId": bson.M{
				"bsonType": []string{"string", "null"},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"assigned",
					"completed",
					"cancelled",
				},
			},

			"customerName": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"customerPhone": bson.M{
				"bsonType": "string",
			},

			"customerAddress": bson.M{
				"bsonType":  "string",
				"maxLength": 300,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"scheduledAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
