// Package events publishes interview lifecycle events to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	TypeInterviewCompleted = "interview.completed"
	TypeInterviewAbandoned = "interview.abandoned"
)

type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	CandidateID uint      `json:"candidate_id"`
	InterviewID uint      `json:"interview_id"`
	Reason      string    `json:"reason,omitempty"`
	ReportID    uint      `json:"report_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Config struct {
	URL        string
	Queue      string
	Expiration time.Duration
}

// New returns a RabbitMQ publisher, or a Dummy when no broker is configured
func New(cfg Config, logger *zap.Logger) Publisher {
	if cfg.URL == "" {
		return &Dummy{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &rabbit{
		url:        cfg.URL,
		queue:      cfg.Queue,
		expiration: cfg.Expiration,
		logger:     logger,
	}
}

type rabbit struct {
	url        string
	queue      string
	expiration time.Duration
	logger     *zap.Logger
}

func (r *rabbit) Publish(ctx context.Context, event Event) error {
	body, err := encode(event)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(r.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", r.queue, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}
	if r.expiration > 0 {
		msg.Expiration = fmt.Sprintf("%d", r.expiration.Milliseconds())
	}
	if err := ch.PublishWithContext(ctx, "", q.Name, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	r.logger.Info("Event published",
		zap.String("type", event.Type),
		zap.String("session_id", event.SessionID),
		zap.String("event_id", event.ID))
	return nil
}

// encode fills the id and timestamp when missing and marshals the event
func encode(event Event) ([]byte, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}

// Dummy drops every event
type Dummy struct{}

func (d *Dummy) Publish(ctx context.Context, event Event) error {
	return nil
}
