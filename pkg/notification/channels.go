package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Rasmogul/greatsoko/pkg/http"
	"github.com/Rasmogul/greatsoko/pkg/mail"
)

// MailChannel emails the recipient.
type MailChannel struct {
	mailer mail.Mailer
}

func NewMailChannel(m mail.Mailer) *MailChannel { return &MailChannel{mailer: m} }

func (c *MailChannel) Name() string { return "mail" }

func (c *MailChannel) Deliver(ctx context.Context, n Notice) error {
	if n.Recipient == "" {
		return fmt.Errorf("notification: notice %q has no recipient", n.Subject)
	}
	return c.mailer.Send(ctx, mail.Message{
		To:      []string{n.Recipient},
		Subject: n.Subject,
		Text:    n.Message,
	})
}

// SlackChannel mirrors notices into an operations channel.
type SlackChannel struct {
	webhookURL string
}

func NewSlackChannel(webhookURL string) *SlackChannel {
	return &SlackChannel{webhookURL: webhookURL}
}

func (c *SlackChannel) Name() string { return "slack" }

type slackAttachment struct {
	Color  string `json:"color,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

func (c *SlackChannel) Deliver(ctx context.Context, n Notice) error {
	resp, err := http.Post(c.webhookURL).
		WithContext(ctx).
		Body(slackPayload{
			Text: n.Subject,
			Attachments: []slackAttachment{{
				Color:  "good",
				Title:  n.Recipient,
				Text:   n.Message,
				Footer: "greatsoko",
			}},
		}).
		Timeout(5*time.Second).
		Retry(2, 200*time.Millisecond).
		Send()
	if err != nil {
		return err
	}
	return resp.Throw()
}
