package mailer

import (
	"context"
	"sync"

	"github.com/diagnosis/eventdesk/pkg/logger"
)

// DevMailer logs messages instead of delivering them and keeps the most
// recent ones for inspection.
type DevMailer struct {
	mu   sync.Mutex
	sent []Message
}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, msg Message) error {
	logger.InfoContext(ctx, "[DEV MAIL]",
		"to", msg.ToEmail,
		"name", msg.ToName,
		"subject", msg.Subject,
		"text", msg.Text,
	)

	d.mu.Lock()
	d.sent = append(d.sent, msg)
	if len(d.sent) > 50 {
		d.sent = d.sent[len(d.sent)-50:]
	}
	d.mu.Unlock()
	return nil
}

func (d *DevMailer) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Message(nil), d.sent...)
}
