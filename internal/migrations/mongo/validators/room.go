package validators

import "go.mongodb.org/mongo-driver/bson"

const timeOfDayPattern = `^([01]?[0-9]|2[0-3]):[0-5][0-9]$`

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"name_key",
			"capacity",
			"start_time",
			"end_time",
			"is_active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"name_key": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"capacity": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  1,
				"maximum":  10000,
			},
			"location": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},
			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},
			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  timeOfDayPattern,
			},
			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  timeOfDayPattern,
			},
			"is_active": bson.M{
				"bsonType": "bool",
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

var RoomLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "version"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"version": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  0,
			},
			"locked_at": bson.M{
				"bsonType": "date",
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
