package main

import (
	authhandler "autolibrarian/internal/auth/handler"
	borrowhandler "autolibrarian/internal/borrows/handler"
	borrowrepo "autolibrarian/internal/borrows/repository"
	borrowservice "autolibrarian/internal/borrows/service"
	borrowvalidator "autolibrarian/internal/borrows/validator"
	cataloghandler "autolibrarian/internal/catalog/handler"
	catalogrepo "autolibrarian/internal/catalog/repository"
	catalogservice "autolibrarian/internal/catalog/service"
	catalogvalidator "autolibrarian/internal/catalog/validator"
	"autolibrarian/pkg/app"
	"autolibrarian/pkg/config"
	"autolibrarian/pkg/kafka"
	kafka_config "autolibrarian/pkg/kafka/config"
	kafka_middleware "autolibrarian/pkg/kafka/middleware"
)

func main() {
	cfg := config.Load("librarian")
	cfg.SetMongo()

	application := app.NewApplication(cfg)

	bookRepo := catalogrepo.NewMongoBookRepository(cfg)
	categoryRepo := catalogrepo.NewMongoCategoryRepository(cfg)
	bookService := catalogservice.NewBookService(
		bookRepo,
		categoryRepo,
		catalogvalidator.NewBookValidator(cfg.Log),
		cfg,
	)

	var publisher borrowservice.LoanEventPublisher
	if cfg.KafkaEnabled {
		kafkaCfg := kafka_config.Load()
		kafkaCfg.LogConfiguration(cfg.Log.Info)

		producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.Topic, kafkaCfg.DLQTopic)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		application.OnShutdown(producer.Close)
		publisher = producer
	}

	recordRepo := borrowrepo.NewMongoBorrowRecordRepository(cfg)
	borrowService := borrowservice.NewBorrowService(
		recordRepo,
		bookRepo,
		borrowvalidator.NewBorrowRecordValidator(cfg.Log),
		publisher,
		cfg,
	)

	application.RegisterHandlers(
		cataloghandler.NewHealthHandler(cfg),
		cataloghandler.NewBookHandler(bookService, cfg.Log),
		borrowhandler.NewBorrowHandler(borrowService, cfg.Log),
		authhandler.NewAuthHandler(cfg, cfg.Log),
	)

	application.Run()
}
