// Package amqp publishes ledger notifications to RabbitMQ and consumes
// them on the worker side. One direct exchange, one durable queue, the
// routing key carries the notification kind.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Rajdeepm07/expensechart/internal/events"
)

const (
	routingKeyAdded   = "expense.added"
	routingKeyRemoved = "expense.removed"

	publishTimeout = 5 * time.Second
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// One queue receives both notification kinds
	for _, key := range []string{routingKeyAdded, routingKeyRemoved} {
		if err := c.channel.QueueBind(c.queueName, key, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue for %s: %w", key, err)
		}
	}

	return nil
}

func (c *Client) PublishExpenseAdded(ctx context.Context, event events.ExpenseAdded) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := c.publish(ctx, routingKeyAdded, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published expense added notification",
		"id", event.ID,
		"amount_cents", event.AmountCents,
		"exchange", c.exchangeName)

	return nil
}

func (c *Client) PublishExpenseRemoved(ctx context.Context, event events.ExpenseRemoved) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := c.publish(ctx, routingKeyRemoved, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published expense removed notification",
		"id", event.ID,
		"exchange", c.exchangeName)

	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Consume delivers notifications to the handlers until ctx is cancelled.
// A handler error nacks the delivery back onto the queue; an undecodable
// body is dropped.
func (c *Client) Consume(ctx context.Context, onAdded func(*events.ExpenseAdded) error, onRemoved func(*events.ExpenseRemoved) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger notifications", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping notification consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.dispatch(ctx, delivery, onAdded, onRemoved)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, onAdded func(*events.ExpenseAdded) error, onRemoved func(*events.ExpenseRemoved) error) {
	var handlerErr error

	switch delivery.RoutingKey {
	case routingKeyAdded:
		event, err := events.ExpenseAddedFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal notification", "error", err)
			delivery.Nack(false, false) // reject and don't requeue
			return
		}
		if onAdded != nil {
			handlerErr = onAdded(event)
		}
	case routingKeyRemoved:
		event, err := events.ExpenseRemovedFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal notification", "error", err)
			delivery.Nack(false, false)
			return
		}
		if onRemoved != nil {
			handlerErr = onRemoved(event)
		}
	default:
		slog.WarnContext(ctx, "Unknown routing key", "routing_key", delivery.RoutingKey)
		delivery.Nack(false, false)
		return
	}

	if handlerErr != nil {
		slog.ErrorContext(ctx, "Failed to handle notification",
			"error", handlerErr,
			"routing_key", delivery.RoutingKey)
		delivery.Nack(false, true) // reject and requeue
		return
	}

	delivery.Ack(false)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

var _ events.Publisher = (*Client)(nil)
