package consumer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/eventdesk/pkg/events"
	"github.com/diagnosis/eventdesk/pkg/logger"
	"github.com/diagnosis/eventdesk/pkg/mailer"
)

// Queue is the NATS queue group shared by notify instances so each message
// is mailed once.
const Queue = "notify"

// Consumer turns registration events into attendee e-mails.
type Consumer struct {
	bus        events.Subscriber
	mailer     mailer.Service
	appBaseURL string
	timeout    time.Duration
}

func New(bus events.Subscriber, mail mailer.Service, appBaseURL string) *Consumer {
	return &Consumer{
		bus:        bus,
		mailer:     mail,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		timeout:    10 * time.Second,
	}
}

// Start subscribes to the registration subjects.
func (c *Consumer) Start() error {
	for _, subject := range []string{events.RegistrationConfirmed, events.RegistrationCancelled} {
		if err := c.bus.QueueSubscribe(subject, Queue, c.onMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		logger.Info("Subscribed", "subject", subject, "queue", Queue)
	}
	return nil
}

func (c *Consumer) onMessage(msg *events.Message) {
	ctx := context.WithValue(context.Background(), logger.RequestIDKey, msg.ID)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.Handle(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to handle event", "subject", msg.Subject, "error", err)
	}
}

// Handle mails the attendee named in a registration event. Subjects other
// than confirmed and cancelled are ignored.
func (c *Consumer) Handle(ctx context.Context, msg *events.Message) error {
	var evt events.RegistrationEvent
	if err := msg.Decode(&evt); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", msg.Subject, err)
	}
	if evt.Email == "" {
		return fmt.Errorf("registration %s has no e-mail", evt.RegistrationID)
	}

	details := mailer.RegistrationDetails{
		FirstName:  evt.FirstName,
		LastName:   evt.LastName,
		Email:      evt.Email,
		EventLabel: evt.EventLabel,
		StartDate:  evt.EventStartDate,
		EventURL:   c.appBaseURL + "/events/" + evt.EventID,
	}

	var out mailer.Message
	switch msg.Subject {
	case events.RegistrationConfirmed:
		out = mailer.RegistrationConfirmed(details)
	case events.RegistrationCancelled:
		out = mailer.RegistrationCancelled(details)
	default:
		return nil
	}

	if err := c.mailer.Send(ctx, out); err != nil {
		return fmt.Errorf("failed to send %s mail: %w", msg.Subject, err)
	}
	logger.InfoContext(ctx, "Registration mail sent",
		"subject", msg.Subject,
		"registration_id", evt.RegistrationID,
		"event_id", evt.EventID,
	)
	return nil
}
