package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	c "ticket-marketplace-backend/context"
	"ticket-marketplace-backend/model"
)

const (
	headerKind          = "kind"
	headerCorrelationID = "correlation_id"
)

// Publisher hands committed notifications to external indexers.
type Publisher interface {
	Publish(ctx context.Context, ns []model.Notification) error
	Close() error
}

type kafka struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafka connects a synchronous, idempotent producer to brokers.
func NewKafka(brokers []string, topic string) (Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = 10 * time.Second
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("newKafka: failed to create producer: %w", err)
	}
	return NewWithProducer(producer, topic), nil
}

func NewWithProducer(producer sarama.SyncProducer, topic string) Publisher {
	return &kafka{producer: producer, topic: topic}
}

// Publish sends ns in one batch. Messages are keyed by ticket so every
// notification of a ticket lands on the same partition in order.
func (k *kafka) Publish(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(ns))
	for _, n := range ns {
		value, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("publish: failed to marshal notification %d: %w", n.Seq, err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: k.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(n.TicketID, 10)),
			Value: sarama.ByteEncoder(value),
			Headers: []sarama.RecordHeader{
				{Key: []byte(headerKind), Value: []byte(n.Kind)},
				{Key: []byte(headerCorrelationID), Value: []byte(c.GetContextValue(ctx, c.ContextKeyCorrelationID))},
			},
			Timestamp: n.CreatedAt,
		})
	}

	if err := k.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("publish: failed to send %d notification(s): %w", len(msgs), err)
	}
	return nil
}

func (k *kafka) Close() error {
	return k.producer.Close()
}
