package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher — best-effort доставка событий: публикация никогда не валит бизнес-флоу,
// ошибки только логируются.
type Publisher interface {
	CheckoutCompleted(ctx context.Context, p CheckoutCompletedPayload)
	CheckoutRolledBack(ctx context.Context, p CheckoutRolledBackPayload)
	Close() error
}

type KafkaPublisher struct {
	w        *kafka.Writer
	producer string
	l        *logrus.Entry
}

func NewKafkaPublisher(brokers []string, producer string, l *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		producer: producer,
		l: l.WithFields(logrus.Fields{
			"component": "events",
			"module":    "kafka_publisher",
		}),
	}
}

func (p *KafkaPublisher) CheckoutCompleted(ctx context.Context, payload CheckoutCompletedPayload) {
	p.publish(ctx, TopicCheckoutCompleted, EventCheckoutCompleted, payload.OrderID, payload)
}

func (p *KafkaPublisher) CheckoutRolledBack(ctx context.Context, payload CheckoutRolledBackPayload) {
	// У незавершенного флоу может не быть заказа, тогда партиционируем по корзине.
	key := payload.OrderID
	if key == "" {
		key = payload.CartID
	}
	p.publish(ctx, TopicCheckoutRolledBack, EventCheckoutRolledBack, key, payload)
}

func (p *KafkaPublisher) Close() error {
	return errors.Wrap(p.w.Close(), "closing kafka writer")
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, eventType, key string, payload any) {
	msg, err := p.marshal(eventType, key, payload)
	if err != nil {
		p.l.WithError(err).WithField("event_type", eventType).Error("marshal event")
		return
	}
	msg.Topic = topic
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.l.WithError(err).WithFields(logrus.Fields{
			"event_type": eventType,
			"topic":      topic,
		}).Error("publish event")
	}
}

func (p *KafkaPublisher) marshal(eventType, key string, payload any) (kafka.Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal payload")
	}
	envelope, err := json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.producer,
		CorrelationID: key,
		Payload:       raw,
	})
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal envelope")
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: envelope,
		Time:  time.Now(),
	}, nil
}

// Nop — заглушка для конфигураций без Kafka.
type Nop struct{}

func (Nop) CheckoutCompleted(context.Context, CheckoutCompletedPayload) {}

func (Nop) CheckoutRolledBack(context.Context, CheckoutRolledBackPayload) {}

func (Nop) Close() error { return nil }
