package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"darshan_id",
			"slot_id",
			"temple_id",
			"owner_id",
			"date",
			"status",
			"payment_status",
			"receipt_number",
			"primary_contact",
			"adults",
			"seats",
			"amount",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"darshan_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"slot_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"temple_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
					"completed",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"completed",
					"failed",
					"refunded",
				},
			},

			"receipt_number": bson.M{
				"bsonType":  "string",
				"minLength": 10,
				"maxLength": 30,
			},

			"primary_contact": bson.M{
				"bsonType": "object",
				"required": []string{"name", "phone"},
			},

			"adults": bson.M{
				"bsonType": "array",
				"minItems": 1,
			},

			"children": bson.M{
				"bsonType": "array",
			},

			"seats": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"amount": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var ReservationLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "expires_at", "created_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"expires_at": bson.M{
				"bsonType": "date",
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
