// Package kafka publishes data-quality events for operator tooling. The
// publisher is feature-flagged; the pipeline works identically without it.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// Publisher sends quality events to a Kafka topic. Publishing is
// best-effort: a broker failure is logged, never surfaced to the pipeline.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	timeout time.Duration
}

// NewPublisher creates a Kafka producer for the quality-event topic.
func NewPublisher(brokers []string, topic string, timeout time.Duration, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &Publisher{writer: w, logger: logger, timeout: timeout}
}

// Report implements domain.QualityReporter.
func (p *Publisher) Report(event domain.QualityEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("serialize quality event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(string(event.Source) + "/" + event.RecordID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "field", Value: []byte(event.Field)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("publish quality event failed",
			"source", event.Source, "record_id", event.RecordID, "error", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
