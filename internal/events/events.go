// Package events publishes rate refresh notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"fxchain/internal/rates"
)

// DefaultTopic receives RatesRefreshed events.
const DefaultTopic = "rates.refreshed"

// RatesRefreshed is emitted after the background refresh resolved the
// canonical currency.
type RatesRefreshed struct {
	Base  string            `json:"base"`
	Date  string            `json:"date"`
	Rates map[string]string `json:"rates"`
}

// NewRatesRefreshed builds the event from a resolved result.
func NewRatesRefreshed(res *rates.Result) RatesRefreshed {
	ev := RatesRefreshed{
		Base:  string(res.Base),
		Date:  res.Date.Format(time.DateOnly),
		Rates: make(map[string]string, len(res.Rates)),
	}
	for c, v := range res.Rates {
		ev.Rates[string(c)] = v.String()
	}
	return ev
}

// Publisher delivers refresh events.
type Publisher interface {
	PublishRatesRefreshed(ctx context.Context, ev RatesRefreshed) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by base currency.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a KafkaPublisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishRatesRefreshed implements Publisher.
func (k *KafkaPublisher) PublishRatesRefreshed(ctx context.Context, ev RatesRefreshed) error {
	v, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal rates refreshed event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.Base),
		Value: v,
		Time:  time.Now(),
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write rates refreshed event: %w", err)
	}
	return nil
}

// Close flushes pending writes.
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// NopPublisher discards events.
type NopPublisher struct{}

// PublishRatesRefreshed implements Publisher.
func (NopPublisher) PublishRatesRefreshed(context.Context, RatesRefreshed) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
