package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvReceiptPrefix      = "RECEIPT_PREFIX"
	EnvReceiptMaxAttempts = "RECEIPT_MAX_ATTEMPTS"

	EnvReservationLockTTL      = "RESERVATION_LOCK_TTL"
	EnvCountChildrenInCapacity = "COUNT_CHILDREN_IN_CAPACITY"
	EnvMaxAttendeesPerBooking  = "MAX_ATTENDEES_PER_BOOKING"

	EnvKafkaBrokers      = "KAFKA_BROKERS"
	EnvKafkaBookingTopic = "KAFKA_BOOKING_TOPIC"
)
