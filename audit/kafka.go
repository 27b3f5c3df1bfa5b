package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes records as JSON messages keyed by session identifier,
// so every decision for a session lands on the same partition.
type KafkaSink struct {
	writer MessageWriter
}

// NewKafkaSink wraps an existing writer.
func NewKafkaSink(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

// NewKafkaWriter creates a synchronous writer that waits for all in-sync
// replicas to acknowledge each record.
func NewKafkaWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
}

func (k *KafkaSink) Publish(ctx context.Context, r Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	msg := kafka.Message{
		Key:   []byte(r.SessionID),
		Value: value,
		Time:  r.ReviewedAt,
		Headers: []kafka.Header{
			{Key: "decision", Value: []byte(r.Decision)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: session %s: %v", ErrPublishFailed, r.SessionID, err)
	}
	return nil
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
