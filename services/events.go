package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LovationAdmin/bizpanel/models"

	"github.com/rabbitmq/amqp091-go"
)

const (
	EventBudgetSubmitted = "budget.submitted"
	EventBudgetUpdated   = "budget.updated"
	EventBudgetDeleted   = "budget.deleted"
)

// BudgetEvent is the message published when a budget changes.
type BudgetEvent struct {
	Type       string        `json:"type"`
	BudgetID   string        `json:"budget_id"`
	OwnerID    string        `json:"owner_id"`
	Version    int           `json:"version"`
	Totals     models.Totals `json:"totals"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewBudgetEvent(eventType string, b *models.Budget) BudgetEvent {
	return BudgetEvent{
		Type:       eventType,
		BudgetID:   b.ID,
		OwnerID:    b.OwnerID,
		Version:    b.Version,
		Totals:     b.Totals,
		OccurredAt: time.Now().UTC(),
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, ev BudgetEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BudgetEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }

// AMQPPublisher sends budget events to a durable direct exchange, routed by
// event type.
type AMQPPublisher struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

func NewAMQPPublisher(url, exchangeName string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchangeName: exchangeName}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev BudgetEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp091 channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		ev.Type,        // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.DebugContext(ctx, "Published budget event",
		"type", ev.Type,
		"budget_id", ev.BudgetID,
		"exchange", p.exchangeName)
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
