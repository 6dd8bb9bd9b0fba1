// Package notification delivers customer notices over mail and, for
// operators, Slack.
//
// Callers hold a Notifier and never see delivery errors:
//
//	notifier.Notify(ctx, notification.Notice{
//	    Recipient: user.Email,
//	    Subject:   "Your order has been placed",
//	    Message:   "Thank you for your order! ...",
//	})
//
// QueueNotifier hands each notice to the job queue; workers run a
// Dispatcher which fans out to every configured Channel.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rasmogul/greatsoko/config"
	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/mail"
	"github.com/Rasmogul/greatsoko/pkg/metrics"
)

// Notice is one message to one recipient.
type Notice struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// Notifier is fire-and-forget: failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Channel delivers a notice over one transport.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n Notice) error
}

// Dispatcher sends a notice to every channel.
type Dispatcher struct {
	channels []Channel
}

func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// FromConfig builds the mail channel and, when SLACK_WEBHOOK_URL is set,
// the Slack channel.
func FromConfig() *Dispatcher {
	channels := []Channel{NewMailChannel(mail.FromConfig())}
	if url := config.Get("SLACK_WEBHOOK_URL", ""); url != "" {
		channels = append(channels, NewSlackChannel(url))
	}
	return NewDispatcher(channels...)
}

// Deliver tries every channel and joins their errors.
func (d *Dispatcher) Deliver(ctx context.Context, n Notice) error {
	var errs []error
	for _, ch := range d.channels {
		err := ch.Deliver(ctx, n)
		metrics.RecordNotification(ch.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Notify delivers inline. Used by `queue:work`-less setups and tests.
func (d *Dispatcher) Notify(ctx context.Context, n Notice) {
	if err := d.Deliver(ctx, n); err != nil {
		logger.WithCtx(ctx).Warn("notification: delivery failed",
			"recipient", n.Recipient, "subject", n.Subject, "error", err)
	}
}
