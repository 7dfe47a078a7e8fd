package rabbit

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

const (
	consumerTag = "rifa-notification-worker"
	// prefetch bounds how many unacked notifications the broker hands to the worker.
	prefetch = 1
)

// Client publishes ticket notifications to a durable direct exchange and consumes them from
// the queue bound to it with the queue name as routing key.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
}

type Rabbiter interface {
	Close()
	Publish(message []byte) error
	Consume(handler func([]byte) error) error
	Cancel() error
}

var _ Rabbiter = (*Client)(nil)

func NewRabbit(url, exchange, queue string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{conn: conn, channel: ch, exchange: exchange, queue: queue}
	if err := client.setup(); err != nil {
		client.Close()
		return nil, err
	}

	zlog.Logger.Info().Str("exchange", exchange).Str("queue", queue).Msg("rabbitmq ready")
	return client, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	if err := c.channel.QueueBind(c.queue, c.queue, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.queue, err)
	}
	if err := c.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
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
	zlog.Logger.Info().Msg("rabbitmq connection closed")
}

func (c *Client) Publish(message []byte) error {
	err := c.channel.Publish(c.exchange, c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         message,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", c.exchange, err)
	}
	zlog.Logger.Debug().Str("queue", c.queue).Msg("notification published")
	return nil
}

// Consume hands every delivery to handler until Cancel is called. A delivery whose handler
// was interrupted by shutdown goes back to the queue; any other failure is dropped.
func (c *Client) Consume(handler func([]byte) error) error {
	msgs, err := c.channel.Consume(c.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				requeue := shouldRequeue(err)
				zlog.Logger.Warn().Err(err).Bool("requeue", requeue).Msg("notification not delivered")
				_ = d.Nack(false, requeue)
				continue
			}
			_ = d.Ack(false)
		}
		zlog.Logger.Info().Str("queue", c.queue).Msg("consumer finished")
	}()

	zlog.Logger.Info().Str("queue", c.queue).Msg("consuming notifications")
	return nil
}

// Cancel stops new deliveries; unacked ones are returned to the queue by the broker.
func (c *Client) Cancel() error {
	if err := c.channel.Cancel(consumerTag, false); err != nil {
		return fmt.Errorf("cancel consumer: %w", err)
	}
	return nil
}

func shouldRequeue(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
