package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"vocalmind/internal/platform/metrics"
)

// KafkaPublisher ships audit events to a Kafka topic, keyed by subject so a
// single client's trail stays ordered within a partition. Production is
// asynchronous; delivery failures are counted and logged, never surfaced to
// the request path.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewKafkaPublisher connects a producer to the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger, m *metrics.Metrics) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger, metrics: m}, nil
}

// Emit serializes the event and produces it asynchronously.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Subject),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			if p.metrics != nil {
				p.metrics.AuditPublishErrors.Inc()
			}
			p.logger.Warn("audit event publish failed",
				"error", err.Error(),
				"action", string(event.Action),
			)
		}
	})
	return nil
}

// Close flushes pending records and releases the producer.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush audit producer: %w", err)
	}
	p.client.Close()
	return nil
}
