package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-data-risk/internal/config"
	"github.com/couchcryptid/storm-data-risk/internal/domain"
)

// keyPrecision matches the precision the dashboard sends, so repeated lookups
// of one center land on one partition.
const keyPrecision = 6

// Publisher produces risk lookup events to a Kafka topic.
// It implements http.LookupPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured lookup topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.KafkaPublishTimeout,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one lookup event and waits for the broker acknowledgement.
func (p *Publisher) Publish(ctx context.Context, lookup domain.RiskLookup) error {
	msg, err := serializeToMessage(lookup)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write risk lookup: %w", err)
	}
	p.logger.Debug("risk lookup published", "topic", p.writer.Topic, "key", string(msg.Key))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a RiskLookup into a Kafka message.
func serializeToMessage(lookup domain.RiskLookup) (kafkago.Message, error) {
	data, err := json.Marshal(lookup)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize risk lookup: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(lookup.Coordinate.Key(keyPrecision)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(lookup.Profile.State)},
			{Key: "county", Value: []byte(lookup.Profile.County)},
			{Key: "looked_up_at", Value: []byte(lookup.LookedUpAt.Format(time.RFC3339))},
		},
	}, nil
}
