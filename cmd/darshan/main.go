package main

import (
	"darshan/internal/bookings/events"
	bookingshandler "darshan/internal/bookings/handler"
	bookingsrepo "darshan/internal/bookings/repository"
	bookingsservice "darshan/internal/bookings/service"
	bookingsvalidator "darshan/internal/bookings/validator"
	darshanshandler "darshan/internal/darshans/handler"
	darshansrepo "darshan/internal/darshans/repository"
	darshansservice "darshan/internal/darshans/service"
	darshansvalidator "darshan/internal/darshans/validator"
	"darshan/internal/receipt"
	"darshan/pkg/app"
	"darshan/pkg/config"
	"darshan/pkg/kafka"
)

const ServiceName = "darshan"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Darshan booking service")

	bookingHandler, darshanHandler := initHandlers(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(darshanHandler, bookingHandler, "/api/v1/bookings")
	serverApp.Run()
}

func initHandlers(cfg *config.Config) (*bookingshandler.BookingHandler, *darshanshandler.DarshanHandler) {
	darshanRepo := darshansrepo.NewMongoDarshanRepository(cfg)
	slotRepo := darshansrepo.NewMongoSlotRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewReservationLockRepository(cfg)

	catalogService := darshansservice.NewCatalogService(
		darshanRepo,
		slotRepo,
		darshansvalidator.NewCatalogValidator(cfg.Log),
		cfg,
	)
	availabilityService := darshansservice.NewAvailabilityService(
		darshanRepo,
		slotRepo,
		bookingRepo,
		cfg,
	)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		darshanRepo,
		slotRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log, cfg.MaxAttendeesPerBooking),
		receipt.NewIssuer(cfg.ReceiptPrefix, cfg.ReceiptMaxAttempts),
		initPublisher(cfg),
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		darshanshandler.NewDarshanHandler(catalogService, availabilityService, cfg.Log)
}

func initPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("No Kafka brokers configured, booking events disabled")
		return events.NewNoopPublisher()
	}

	producer, err := kafka.NewProducer(&kafka.Config{Brokers: cfg.KafkaBrokers}, cfg.KafkaBookingTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka booking events enabled", "topic", cfg.KafkaBookingTopic)
	return events.NewKafkaPublisher(producer, cfg.Log)
}
