// internal/common/messaging/rabbitmq.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"clinic-notify-workers/internal/common/config"
	apperrors "clinic-notify-workers/internal/common/errors"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/metrics"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const ExchangeType = "topic"

// Routing keys published by the document store change feed.
const (
	RoutingAppointmentCreated       = "appointment.created"
	RoutingPatientCreated           = "patient.created"
	RoutingHomeClinicRequestCreated = "home_clinic_request.created"
)

// Handler processes one change-feed message body.
type Handler func(ctx context.Context, body []byte) error

// Consumer delivers change-feed messages to handlers by routing key. A message
// is acked once its handler returns nil.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	prefetch int
	logger   logger.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewConsumer(cfg config.RabbitMQConfig, log logger.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(channel, cfg); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ", map[string]interface{}{
		"exchange": cfg.Exchange,
		"queue":    cfg.Queue,
	})

	return &Consumer{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		prefetch: cfg.Prefetch,
		logger:   log,
		handlers: make(map[string]Handler),
	}, nil
}

func declare(channel *amqp.Channel, cfg config.RabbitMQConfig) error {
	if err := channel.ExchangeDeclare(
		cfg.Exchange, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if cfg.Prefetch > 0 {
		if err := channel.Qos(cfg.Prefetch, 0, false); err != nil {
			return fmt.Errorf("failed to set qos: %w", err)
		}
	}
	return nil
}

// Register binds a handler to a routing key. Call before Start.
func (c *Consumer) Register(routingKey string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = make(map[string]Handler)
	}
	c.handlers[routingKey] = h
}

// Start binds the queue for every registered routing key and consumes until
// ctx is cancelled or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	keys := make([]string, 0, len(c.handlers))
	for k := range c.handlers {
		keys = append(keys, k)
	}
	c.mu.RUnlock()

	for _, key := range keys {
		if err := c.channel.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	deliveries, err := c.channel.Consume(
		c.queue,
		"notification-workers-"+uuid.NewString()[:8], // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("Change feed consumer started", map[string]interface{}{"routingKeys": keys})

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.dispatch(ctx, d)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	c.mu.RLock()
	h, ok := c.handlers[d.RoutingKey]
	c.mu.RUnlock()

	fields := map[string]interface{}{
		"routingKey": d.RoutingKey,
		"messageId":  d.MessageId,
	}

	if !ok {
		c.logger.Warn("No handler for routing key", fields)
		metrics.ChangeFeedMessages.WithLabelValues(d.RoutingKey, "unroutable").Inc()
		_ = d.Nack(false, false)
		return
	}

	if err := h(ctx, d.Body); err != nil {
		fields["error"] = err
		requeue := isRetryable(err) && !d.Redelivered
		fields["requeue"] = requeue
		c.logger.Error("Change feed handler failed", fields)
		metrics.ChangeFeedMessages.WithLabelValues(d.RoutingKey, "nacked").Inc()
		_ = d.Nack(false, requeue)
		return
	}

	metrics.ChangeFeedMessages.WithLabelValues(d.RoutingKey, "acked").Inc()
	_ = d.Ack(false)
}

// Only a retryable StandardError is worth another delivery.
func isRetryable(err error) bool {
	var stdErr *apperrors.StandardError
	if apperrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("Error closing RabbitMQ channel", map[string]interface{}{"error": err})
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Publisher emits envelopes onto the change-feed exchange. Used by tooling to
// replay creation events.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(cfg config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(cfg.Exchange, ExchangeType, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: channel, exchange: cfg.Exchange}, nil
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
