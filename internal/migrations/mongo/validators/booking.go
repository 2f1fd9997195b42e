package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"title",
			"organizer_name",
			"organizer_email",
			"participant_count",
			"start_datetime",
			"end_datetime",
			"is_cancelled",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 300,
			},

			"organizer_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"organizer_email": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
				"pattern":   `^[^@\s]+@[^@\s]+$`,
			},

			"participant_count": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  1,
			},

			"start_datetime": bson.M{
				"bsonType": "date",
			},

			"end_datetime": bson.M{
				"bsonType": "date",
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"is_cancelled": bson.M{
				"bsonType": "bool",
			},

			"cancelled_at": bson.M{
				"bsonType": "date",
			},

			"cancellation_reason": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
