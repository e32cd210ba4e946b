package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"flume/config"
	"flume/internal/models"
)

// KafkaProducer implements the Producer interface on top of a kafka-go
// Writer. Writes are synchronous: the intake response must reflect whether
// the record actually reached the channel.
type KafkaProducer struct {
	writer *kafka.Writer
	logger *logrus.Entry
	topic  string
}

// NewKafkaProducer creates a new KafkaProducer.
func NewKafkaProducer(cfg config.KafkaProducerConfig, logger *logrus.Entry) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka producer configuration incomplete: both brokers and topic are required")
	}

	var requiredAcks kafka.RequiredAcks
	switch cfg.RequiredAcks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "one":
		requiredAcks = kafka.RequireOne
	default:
		requiredAcks = kafka.RequireAll
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},

		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: requiredAcks,
		Async:        false,

		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,

		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Errorf("kafka writer: "+msg, args...)
		}),
	}

	logger.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Info("Kafka producer created")

	return &KafkaProducer{
		writer: w,
		logger: logger,
		topic:  cfg.Topic,
	}, nil
}

// Publish enqueues one canonical record, keyed by tenant so one tenant's
// records stay on one partition.
func (p *KafkaProducer) Publish(ctx context.Context, rec *models.CanonicalRecord) (string, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to serialize canonical record: %w", err)
	}

	messageID := uuid.NewString()
	msg := kafka.Message{
		Key:   []byte(rec.TenantID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "message_id", Value: []byte(messageID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithFields(logrus.Fields{
			"tenant_id": rec.TenantID,
			"log_id":    rec.LogID,
		}).WithError(err).Error("failed to write record to Kafka")
		return "", fmt.Errorf("failed to write to Kafka: %w", err)
	}

	return messageID, nil
}

// Close closes the producer and flushes any buffered messages.
func (p *KafkaProducer) Close() error {
	p.logger.Info("Closing Kafka producer...")
	return p.writer.Close()
}

var _ Producer = (*KafkaProducer)(nil)
