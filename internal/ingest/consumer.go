package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// ConsumerConfig for one topic subscription
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Topic      string
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// messageSource is the part of kafka.Reader the consumer uses.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer pumps one topic through the dispatcher. Offsets are committed
// explicitly: a message marked ErrRedeliver blocks its partition until
// it applies, everything else is acknowledged exactly once per fetch.
type Consumer struct {
	source     messageSource
	dispatcher *Dispatcher
	topic      string
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(cfg ConsumerConfig, d *Dispatcher) *Consumer {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Minute
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &Consumer{
		source:     reader,
		dispatcher: d,
		topic:      cfg.Topic,
		minBackoff: cfg.MinBackoff,
		maxBackoff: cfg.MaxBackoff,
	}
}

// Run consumes until the context is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	log.Info().Str("topic", c.topic).Msg("Consumer started")

	for {
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.process(ctx, msg); err != nil {
			return err
		}
	}
}

// process dispatches one message and decides the commit. Redeliverable
// failures loop with exponential backoff without committing.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	backoff := c.minBackoff

	for {
		err := c.dispatcher.Dispatch(ctx, msg)
		if err == nil {
			return c.commit(ctx, msg)
		}
		if !errors.Is(err, ErrRedeliver) {
			log.Error().Err(err).Str("topic", msg.Topic).Msg("Message dropped")
			return c.commit(ctx, msg)
		}

		log.Warn().Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Dur("backoff", backoff).
			Msg("Critical event not applied, retrying")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) error {
	if err := c.source.CommitMessages(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

// Close shuts the underlying reader, unblocking Run.
func (c *Consumer) Close() error {
	return c.source.Close()
}
