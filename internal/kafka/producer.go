// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"

	"paymenthub/internal/domain"
)

// ProducerConfig holds the broker connection settings.
type ProducerConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

// Producer publishes events synchronously, keyed by the event key so that all
// events of one payment land on the same partition in order.
type Producer struct {
	Client *kgo.Client
	Config *ProducerConfig
	Logger *zap.Logger
}

// NewEventProducer creates a producer client. metrics may be nil.
func NewEventProducer(conf *ProducerConfig, metrics *kprom.Metrics, logger *zap.Logger) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.ClientID(conf.ClientID),
		kgo.DefaultProduceTopic(conf.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Producer{Client: client, Config: conf, Logger: logger}, nil
}

// Publish produces every event and waits for the broker acknowledgements.
func (p *Producer) Publish(ctx context.Context, events []*domain.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode event %d: %w", e.Sequence, err)
		}
		records = append(records, &kgo.Record{
			Topic: p.Config.Topic,
			Key:   []byte(e.Key),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.Type)},
				{Key: "event_id", Value: []byte(e.ID)},
			},
		})
	}

	if err := p.Client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce events: %w", err)
	}

	p.Logger.Debug("events produced", zap.String("topic", p.Config.Topic), zap.Int("count", len(records)))
	return nil
}

// Ping checks that at least one broker is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Producer) Close() {
	p.Client.Close()
}
