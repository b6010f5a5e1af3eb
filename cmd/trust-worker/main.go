package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/config"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/admin"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/booking"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/feedback"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/location"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/reputation"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/swipe"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/ingest"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/concerns"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/database"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/storage"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/retention"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().Msg("Starting trust-worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker has no websocket clients of its own: alerts go out over
	// Redis Pub/Sub and API instances fan them out to connected staff.
	alerts := alert.NewPublisher(rdb, nil)

	riskSvc := risk.NewService(risk.NewRepository(db), alerts)
	reputationSvc := reputation.NewService(reputation.NewRepository(db), rdb)
	bookingSvc := booking.NewService(booking.NewRepository(db), riskSvc, alerts)
	swipeSvc := swipe.NewService(swipe.NewRepository(db), alerts)

	var classifier concerns.Classifier = concerns.NopClassifier{}
	if cfg.ConcernsEnabled {
		classifier = concerns.NewClient(concerns.Config{
			BaseURL: cfg.ConcernsBaseURL,
			Token:   cfg.ConcernsToken,
		})
	}
	feedbackSvc := feedback.NewService(riskSvc, reputationSvc, classifier)

	dispatcher := ingest.NewDispatcher(riskSvc, bookingSvc, swipeSvc, feedbackSvc)

	topics := []string{
		cfg.TopicRiskEvents,
		cfg.TopicBookingEvents,
		cfg.TopicSwipeEvents,
		cfg.TopicFeedback,
		cfg.TopicAccountEvents,
	}

	var wg sync.WaitGroup
	consumers := make([]*ingest.Consumer, 0, len(topics))
	for _, topic := range topics {
		consumer := ingest.NewConsumer(ingest.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topic:   topic,
		}, dispatcher)
		consumers = append(consumers, consumer)

		wg.Add(1)
		go func(c *ingest.Consumer, topic string) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				log.Error().Err(err).Str("topic", topic).Msg("Consumer stopped")
				cancel()
			}
		}(consumer, topic)
	}

	// Archive storage is optional: without it retention still prunes the
	// dedup log but leaves audit rows in place.
	var archive retention.ObjectStore
	if cfg.R2AccountID != "" {
		r2, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 storage client")
		}
		archive = r2
	} else {
		log.Warn().Msg("R2 not configured, running without audit archiving")
	}

	retainer := retention.NewWorker(db, admin.NewRepository(db), location.NewRepository(db), archive, retention.Config{
		DedupWindowDays: cfg.EventDedupWindowDays,
		RetentionDays:   cfg.AuditRetentionDays,
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		retainer.Start(ctx)
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	<-ctx.Done()

	for _, consumer := range consumers {
		if err := consumer.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing consumer")
		}
	}
	wg.Wait()

	log.Info().Msg("trust-worker stopped")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
