package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "darshan"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultReceiptPrefix      = "DSN"
	DefaultReceiptMaxAttempts = 5

	DefaultReservationLockTTL      = 10 * time.Second
	DefaultCountChildrenInCapacity = true
	DefaultMaxAttendeesPerBooking  = 20

	DefaultKafkaBookingTopic = "darshan.booking.events"

	DefaultPaginationLimit = 100
)
