package main

import (
	"meetingroom/internal/availability"
	bookingshandler "meetingroom/internal/bookings/handler"
	bookingsrepo "meetingroom/internal/bookings/repository"
	bookingsservice "meetingroom/internal/bookings/service"
	bookingsvalidator "meetingroom/internal/bookings/validator"
	"meetingroom/internal/events"
	"meetingroom/internal/health"
	roomshandler "meetingroom/internal/rooms/handler"
	roomsrepo "meetingroom/internal/rooms/repository"
	roomsservice "meetingroom/internal/rooms/service"
	roomsvalidator "meetingroom/internal/rooms/validator"
	"meetingroom/internal/store/memory"
	"meetingroom/pkg/app"
	"meetingroom/pkg/config"
	"meetingroom/pkg/contracts"
	"meetingroom/pkg/kafka"
	kafka_config "meetingroom/pkg/kafka/config"
	kafka_middleware "meetingroom/pkg/kafka/middleware"
)

const ServiceName = "meetingrooms"

type stores struct {
	rooms    roomsrepo.RoomRepository
	bookings bookingsrepo.BookingRepository
	locker   roomsrepo.RoomLocker
	pinger   health.Pinger
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Meeting Rooms service")

	serverApp := app.NewApplication()
	st := initStores(cfg, serverApp)
	publisher := initPublisher(cfg, serverApp)

	serverApp.SetApp(cfg, st.pinger, newHandlers(cfg, st, publisher)...)
	serverApp.Run()
}

func newHandlers(cfg *config.Config, st stores, publisher events.Publisher) []contracts.Handler {
	engine := availability.NewEngine(st.rooms, availability.NewConflictDetector(st.bookings), cfg.Location, cfg.Log)

	roomService := roomsservice.NewRoomService(
		st.rooms,
		st.locker,
		st.bookings,
		roomsvalidator.NewRoomValidator(cfg.Log),
		publisher,
		cfg,
	)
	bookingService := bookingsservice.NewBookingService(
		st.bookings,
		st.rooms,
		st.locker,
		engine,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	cfg.Log.Info("Services initialized", "store_driver", cfg.StoreDriver, "org_timezone", cfg.OrgTimezone)

	return []contracts.Handler{
		roomshandler.NewRoomHandler(roomService, engine, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
	}
}

func initStores(cfg *config.Config, serverApp *app.Application) stores {
	if cfg.StoreDriver == config.StoreDriverMemory {
		cfg.Log.Warn("Using in-memory store, data is lost on restart")
		return memoryStores(memory.NewStore())
	}

	cfg.SetMongo()
	serverApp.OnShutdown(cfg.GracefulShutdown)
	return stores{
		rooms:    roomsrepo.NewMongoRoomRepository(cfg),
		bookings: bookingsrepo.NewMongoBookingRepository(cfg),
		locker:   roomsrepo.NewMongoRoomLocker(cfg),
		pinger:   cfg.Client,
	}
}

func memoryStores(store *memory.Store) stores {
	return stores{
		rooms:    store.Rooms(),
		bookings: store.Bookings(),
		locker:   store.Locker(),
		pinger:   store,
	}
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Lifecycle events disabled")
		return events.NopPublisher{}
	}

	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	metrics := kafka_middleware.NewMetrics()
	bookings := newProducer(cfg, kafkaCfg, kafkaCfg.Topics.BookingEvents, metrics)
	rooms := newProducer(cfg, kafkaCfg, kafkaCfg.Topics.RoomEvents, metrics)

	serverApp.OnShutdown(func() {
		metrics.Log(cfg.Log)
		for _, p := range []*kafka.Producer{bookings, rooms} {
			if err := p.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}
	})

	return events.NewKafkaPublisher(bookings, rooms, ServiceName)
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string, metrics *kafka_middleware.Metrics) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, topic, kafkaCfg.DLQTopic(topic), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(metrics.ProducerMiddleware())
	return producer
}
