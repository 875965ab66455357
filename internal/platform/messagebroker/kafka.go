package messagebroker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
)

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON values to a single topic.
type KafkaPublisher struct {
	writer Writer
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	return NewKafkaPublisherWithWriter(w, topic, logger), nil
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: logger.With("component", "kafka_publisher", "topic", topic),
	}
}

// Publish marshals value to JSON and writes it under key, so messages sharing
// a key land on one partition. Headers are sent sorted by name.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, value any, headers map[string]string) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal kafka value: %w", err)
	}
	msg := kafka.Message{Key: []byte(key), Value: b}
	if len(headers) > 0 {
		names := make([]string, 0, len(headers))
		for name := range headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			msg.Headers = append(msg.Headers, kafka.Header{Key: name, Value: []byte(headers[name])})
		}
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "Kafka write failed", "key", key, "error", err)
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	p.logger.DebugContext(ctx, "Published message", "key", key)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
