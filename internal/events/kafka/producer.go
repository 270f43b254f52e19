package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
)

// AuditProducer mirrors audit records onto a Kafka topic for downstream
// consumers (SIEM, analytics). The database row remains the source of truth;
// callers swallow publish errors the same way they swallow insert errors.
type AuditProducer struct {
	producer sarama.SyncProducer
	logger   *zap.Logger
	topic    string
}

// NewAuditProducer creates a new Kafka audit producer.
func NewAuditProducer(brokers []string, topic string, logger *zap.Logger) (*AuditProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &AuditProducer{
		producer: producer,
		logger:   logger,
		topic:    topic,
	}, nil
}

// Publish sends one audit record to the topic. Keyed by user ID so one user's
// trail stays ordered within a partition.
func (p *AuditProducer) Publish(entry *models.AuditLog) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	var key sarama.Encoder
	if entry.UserID != nil {
		key = sarama.StringEncoder(entry.UserID.String())
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   key,
		Value: sarama.ByteEncoder(payload),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send audit record to Kafka: %w", err)
	}
	return nil
}

// Close shuts down the producer.
func (p *AuditProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka producer", zap.Error(err))
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
