package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/twmb/franz-go/pkg/kgo"

	"idledger/internal/ledger/models"
)

// Sink delivers ledger events to an external transport. Publish must either
// accept the whole batch or return an error; the relay retries the batch.
type Sink interface {
	Name() string
	Publish(ctx context.Context, events []*models.Event) error
}

// Producer is the franz-go surface KafkaSink needs; *kgo.Client satisfies it.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSink produces each event to a topic keyed by account, so all events
// of one account land on one partition in sequence order.
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafkaSink(producer Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Publish(ctx context.Context, events []*models.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", e.Sequence, err)
		}
		records = append(records, &kgo.Record{
			Topic: k.topic,
			Key:   []byte(e.Account.String()),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.Type)},
				{Key: "event_id", Value: []byte(e.ID.String())},
			},
		})
	}
	if err := k.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce ledger events: %w", err)
	}
	return nil
}

// ChannelPublisher is the amqp091 surface RabbitSink needs; *amqp.Channel
// satisfies it.
type ChannelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitSink publishes each event to a topic exchange with the event type as
// routing key.
type RabbitSink struct {
	channel  ChannelPublisher
	exchange string
}

func NewRabbitSink(channel ChannelPublisher, exchange string) *RabbitSink {
	return &RabbitSink{channel: channel, exchange: exchange}
}

func (r *RabbitSink) Name() string { return "rabbitmq" }

func (r *RabbitSink) Publish(ctx context.Context, events []*models.Event) error {
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", e.Sequence, err)
		}
		err = r.channel.PublishWithContext(ctx, r.exchange, string(e.Type), false, false, amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    e.ID.String(),
			Type:         string(e.Type),
			Timestamp:    e.Timestamp,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish event %d: %w", e.Sequence, err)
		}
	}
	return nil
}

// LogSink writes events to the structured log. Used when no broker is
// configured so the outbox still drains.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) Publish(ctx context.Context, events []*models.Event) error {
	for _, e := range events {
		args := []any{
			"event_id", e.ID.String(),
			"sequence", e.Sequence,
			"type", string(e.Type),
			"account", e.Account.String(),
			"log_type", "ledger_event",
		}
		if e.Verifier != nil {
			args = append(args, "verifier", e.Verifier.String())
		}
		l.logger.InfoContext(ctx, "ledger event", args...)
	}
	return nil
}
