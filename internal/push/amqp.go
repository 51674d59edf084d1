package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeTypeTopic = "topic"
	RoutingKeyPush    = "push"
	EventTypePush     = "push"
)

// EventPayload is the envelope published to the broker; the push worker
// consuming RoutingKeyPush decodes Data as a Notification.
type EventPayload struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
	SentAt    time.Time       `json:"sent_at"`
}

// publisher is the part of *amqp.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes notifications to a RabbitMQ topic exchange.
type AMQPNotifier struct {
	exchange string
	conn     *amqp.Connection

	// an amqp channel must not be shared between goroutines
	mu sync.Mutex
	ch publisher
}

// DialAMQP connects to url and declares the durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,          // name
		ExchangeTypeTopic, // type
		true,              // durable
		false,             // autoDelete
		false,             // internal
		false,             // noWait
		nil,               // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPNotifier{exchange: exchange, conn: conn, ch: ch}, nil
}

func (a *AMQPNotifier) Notify(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	body, err := json.Marshal(EventPayload{EventType: EventTypePush, Data: data, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	err = a.ch.PublishWithContext(ctx,
		a.exchange,     // exchange
		RoutingKeyPush, // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish push for user %d: %w", n.UserID, err)
	}
	return nil
}

// Close tears down the broker connection.
func (a *AMQPNotifier) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
