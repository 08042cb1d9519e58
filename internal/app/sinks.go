package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"

	"paymenthub/internal/config"
	"paymenthub/internal/events"
	"paymenthub/internal/kafka"
	internalRedis "paymenthub/internal/redis"
	"paymenthub/internal/repository/mongodb"
)

// Sinks are the outbox relay's destinations plus whatever must be closed on shutdown.
type Sinks struct {
	Publisher  events.Publisher
	DeadLetter events.DeadLetterQueue
	closers    []func(context.Context)
}

// Close releases every sink connection.
func (s *Sinks) Close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i](ctx)
	}
}

// NewSinks connects the configured event sinks. The zap log sink is always on;
// Kafka and MongoDB join when enabled. redisClient may be nil, in which case
// failing batches are retried without dead-lettering.
func NewSinks(ctx context.Context, cfg config.Config, redisClient *redis.Client, metrics *kprom.Metrics, logger *zap.Logger) (*Sinks, error) {
	sinks := &Sinks{}
	publishers := events.MultiPublisher{events.NewLogPublisher(logger, cfg.Token.Decimals)}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewEventProducer(&kafka.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
			Topic:    cfg.Kafka.Topic,
		}, metrics, logger)
		if err != nil {
			return nil, err
		}
		if err := producer.Ping(ctx); err != nil {
			producer.Close()
			return nil, fmt.Errorf("failed to reach kafka brokers: %w", err)
		}
		sinks.closers = append(sinks.closers, func(context.Context) { producer.Close() })
		publishers = append(publishers, producer)
		logger.Info("kafka sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Mongo.Enabled {
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			sinks.Close(ctx)
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		sinks.closers = append(sinks.closers, func(ctx context.Context) { _ = client.Disconnect(ctx) })
		publishers = append(publishers, mongodb.NewEventArchive(client, cfg.Mongo.Database, cfg.Mongo.Collection))
		logger.Info("mongo archive enabled", zap.String("database", cfg.Mongo.Database))
	}

	sinks.Publisher = publishers
	if redisClient != nil {
		sinks.DeadLetter = internalRedis.NewDeadLetterQueue(redisClient, logger, cfg.Relay.DeadLetterList)
	}
	return sinks, nil
}
