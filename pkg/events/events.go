package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/diagnosis/eventdesk/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v any) error {
	return json.Unmarshal(m.Data, v)
}

type NATSEventBus struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

func NewNATSEventBus(url, name string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	if requestID := logger.RequestID(ctx); requestID != "" {
		msg.Header.Set("X-Request-ID", requestID)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)

	return n.conn.PublishMsg(msg)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	if err != nil {
		return err
	}
	n.subs = append(n.subs, sub)
	return nil
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	sub, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	if err != nil {
		return err
	}
	n.subs = append(n.subs, sub)
	return nil
}

// Close drains subscriptions so in-flight handlers finish before the
// connection goes away.
func (n *NATSEventBus) Close() error {
	for _, sub := range n.subs {
		_ = sub.Drain()
	}
	return n.conn.Drain()
}

func toMessage(msg *nats.Msg) *Message {
	id := msg.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: time.Now(),
		ID:        id,
	}
}

// Event types and subjects
const (
	EventCreated = "event.created"
	EventUpdated = "event.updated"
	EventDeleted = "event.deleted"

	RegistrationConfirmed = "registration.confirmed"
	RegistrationCancelled = "registration.cancelled"
	RegistrationUpdated   = "registration.updated"
)

// Event payloads
type EventChangedEvent struct {
	EventID   string    `json:"event_id"`
	Label     string    `json:"label"`
	StartDate string    `json:"start_date"`
	ActorID   string    `json:"actor_id"`
	ChangedAt time.Time `json:"changed_at"`
}

type RegistrationEvent struct {
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	EventLabel     string    `json:"event_label"`
	EventStartDate string    `json:"event_start_date"`
	UserID         string    `json:"user_id,omitempty"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Status         string    `json:"status"`
	Reactivated    bool      `json:"reactivated,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
