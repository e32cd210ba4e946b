package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"flume/config"
)

// KafkaConsumer implements the Consumer interface on a kafka-go Reader with
// manual offset commits. An uncommitted message is redelivered when the
// consumer group rebalances or the session times out, which gives the
// at-least-once redelivery the worker relies on.
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *logrus.Entry
}

// NewKafkaConsumer creates a new KafkaConsumer instance.
func NewKafkaConsumer(cfg config.KafkaConsumerConfig, logger *logrus.Entry) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("incomplete kafka configuration: brokers, topic, group_id are all required")
	}

	sessionTimeout, err := time.ParseDuration(cfg.SessionTimeout)
	if err != nil {
		logger.Warnf("invalid session_timeout %q, using default 30s", cfg.SessionTimeout)
		sessionTimeout = 30 * time.Second
	}

	heartbeatInterval, err := time.ParseDuration(cfg.HeartbeatInterval)
	if err != nil {
		logger.Warnf("invalid heartbeat_interval %q, using default 3s", cfg.HeartbeatInterval)
		heartbeatInterval = 3 * time.Second
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.Topic,
		MinBytes:          1,
		MaxBytes:          10e6, // 10MB
		MaxWait:           1 * time.Second,
		SessionTimeout:    sessionTimeout,
		HeartbeatInterval: heartbeatInterval,
	}

	switch cfg.AutoOffsetReset {
	case "latest":
		readerConfig.StartOffset = kafka.LastOffset
	default:
		readerConfig.StartOffset = kafka.FirstOffset
	}

	r := kafka.NewReader(readerConfig)

	logger.WithFields(logrus.Fields{
		"brokers":  cfg.Brokers,
		"topic":    cfg.Topic,
		"group_id": cfg.GroupID,
	}).Info("Kafka consumer created")

	return &KafkaConsumer{
		reader: r,
		logger: logger,
	}, nil
}

// Consume fetches the next raw message from Kafka.
func (k *KafkaConsumer) Consume(ctx context.Context) (*Delivery, func(commit bool), error) {
	kafkaMsg, err := k.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}

	d := &Delivery{Value: kafkaMsg.Value}
	for _, h := range kafkaMsg.Headers {
		if h.Key == "message_id" {
			d.MessageID = string(h.Value)
		}
	}

	ack := func(commit bool) {
		if !commit {
			k.logger.WithField("offset", kafkaMsg.Offset).Warn("delivery left uncommitted, redelivered on restart or rebalance")
			return
		}
		if err := k.reader.CommitMessages(context.Background(), kafkaMsg); err != nil {
			k.logger.WithField("offset", kafkaMsg.Offset).WithError(err).Error("failed to commit offset")
		}
	}

	return d, ack, nil
}

// Close closes the Kafka reader.
func (k *KafkaConsumer) Close() error {
	k.logger.Info("Closing Kafka consumer...")
	return k.reader.Close()
}

var _ Consumer = (*KafkaConsumer)(nil)
