package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RoutingKeySessionFinished is published once a finished session is archived.
const RoutingKeySessionFinished = "live.session.finished"

// DefaultExchange is used when no exchange is configured.
const DefaultExchange = "live.events"

// SessionFinished is the body of a RoutingKeySessionFinished message.
type SessionFinished struct {
	StoredID       int64     `json:"storedId"`
	Code           string    `json:"code"`
	TopicID        int64     `json:"topicId"`
	TotalQuestions int       `json:"totalQuestions"`
	Participants   int       `json:"participants"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// Publisher announces lifecycle events to other services.
type Publisher interface {
	PublishSessionFinished(ctx context.Context, event SessionFinished) error
	Close() error
}

// EventPublisher publishes JSON messages to a RabbitMQ topic exchange.
type EventPublisher struct {
	conn     *amqp091.Connection
	exchange string
	log      zerolog.Logger

	mu      sync.Mutex
	channel *amqp091.Channel
}

func NewEventPublisher(url, exchange string, log zerolog.Logger) (*EventPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log = log.With().Str("component", "amqp").Str("exchange", exchange).Logger()
	log.Info().Msg("event publisher initialized")
	return &EventPublisher{conn: conn, channel: channel, exchange: exchange, log: log}, nil
}

func (p *EventPublisher) PublishSessionFinished(ctx context.Context, event SessionFinished) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,                // exchange
		RoutingKeySessionFinished, // routing key
		false,                     // mandatory
		false,                     // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			Headers: amqp091.Table{
				"event_type":   RoutingKeySessionFinished,
				"session_code": event.Code,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.log.Debug().Str("session_code", event.Code).Int64("stored_id", event.StoredID).Msg("published session finished")
	return nil
}

func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn().Err(err).Msg("error closing RabbitMQ channel")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}
