// Package kafka publishes ledger notifications to a Kafka topic.
package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Rajdeepm07/expensechart/internal/events"
)

const (
	typeAdded   = "expense_added"
	typeRemoved = "expense_removed"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) PublishExpenseAdded(ctx context.Context, event events.ExpenseAdded) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.write(ctx, typeAdded, body)
}

func (p *Publisher) PublishExpenseRemoved(ctx context.Context, event events.ExpenseRemoved) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.write(ctx, typeRemoved, body)
}

func (p *Publisher) write(ctx context.Context, eventType string, body []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: body,
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", eventType, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ events.Publisher = (*Publisher)(nil)
