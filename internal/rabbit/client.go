package rabbit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Config struct {
	URL      string
	Exchange string
	Queue    string
	// Prefetch limits unacknowledged deliveries per consumer.
	Prefetch int
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	log     *zerolog.Logger
}

// Handler processes one delivery body. A non-nil error requeues the delivery
// unless it wraps ErrPoison.
type Handler func(ctx context.Context, body []byte) error

// ErrPoison marks a message that can never be processed and must be dropped.
var ErrPoison = errors.New("poison message")

func NewRabbit(cfg Config, log *zerolog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		log.Error().Err(err).Msg("failed to open RabbitMQ channel")
		return nil, err
	}

	client := &Client{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
		log:     log,
	}

	if err := client.declare(); err != nil {
		client.Close()
		return nil, err
	}

	log.Info().
		Str("exchange", cfg.Exchange).
		Str("queue", cfg.Queue).
		Msg("RabbitMQ initialized")

	return client, nil
}

func (c *Client) declare() error {
	if err := c.channel.ExchangeDeclare(
		c.cfg.Exchange,
		amqp.ExchangeDirect,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		c.log.Error().Err(err).Msg("failed to declare exchange")
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(
		c.cfg.Queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		c.log.Error().Err(err).Msg("failed to declare queue")
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(
		c.cfg.Queue,
		c.cfg.Queue,
		c.cfg.Exchange,
		false,
		nil,
	); err != nil {
		c.log.Error().Err(err).Msg("failed to bind queue")
		return fmt.Errorf("bind queue: %w", err)
	}

	if c.cfg.Prefetch > 0 {
		if err := c.channel.Qos(c.cfg.Prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}
	return nil
}

func (c *Client) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.log.Info().Msg("RabbitMQ connection closed")
}

func (c *Client) Publish(ctx context.Context, body []byte) error {
	msgID := uuid.NewString()
	err := c.channel.PublishWithContext(
		ctx,
		c.cfg.Exchange,
		c.cfg.Queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msgID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to publish message to RabbitMQ")
		return fmt.Errorf("publish: %w", err)
	}

	c.log.Debug().Str("message_id", msgID).Str("exchange", c.cfg.Exchange).Msg("message published")
	return nil
}

// Consume delivers messages to handler until ctx is cancelled or the channel
// closes. Deliveries are acked on success and nacked otherwise.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.ConsumeWithContext(
		ctx,
		c.cfg.Queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to start consuming messages")
		return err
	}

	c.log.Info().Str("queue", c.cfg.Queue).Msg("started consuming")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			settle(ctx, c.log, d.MessageId, d.Body, d, handler)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, log *zerolog.Logger, id string, body []byte, ack acknowledger, handler Handler) {
	err := handler(ctx, body)
	switch {
	case err == nil:
		_ = ack.Ack(false)
	case errors.Is(err, ErrPoison):
		log.Error().Err(err).Str("message_id", id).Msg("dropping message")
		_ = ack.Nack(false, false)
	default:
		log.Warn().Err(err).Str("message_id", id).Msg("failed to process message, requeueing")
		_ = ack.Nack(false, true)
	}
}
