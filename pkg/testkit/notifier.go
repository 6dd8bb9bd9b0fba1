package testkit

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Rasmogul/greatsoko/pkg/notification"
)

// Notifier is a testify mock of notification.Notifier that also keeps the
// notices it was handed. It accepts any call until told otherwise.
type Notifier struct {
	mock.Mock

	mu   sync.Mutex
	sent []notification.Notice
}

func NewNotifier() *Notifier {
	n := &Notifier{}
	n.On("Notify", mock.Anything, mock.Anything).Return()
	return n
}

func (n *Notifier) Notify(ctx context.Context, notice notification.Notice) {
	n.mu.Lock()
	n.sent = append(n.sent, notice)
	n.mu.Unlock()
	n.Called(ctx, notice)
}

// Sent returns every notice since the last Reset.
func (n *Notifier) Sent() []notification.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Notice(nil), n.sent...)
}

// Matching filters Sent by subject and, when non-empty, recipient.
func (n *Notifier) Matching(subject, recipient string) []notification.Notice {
	var out []notification.Notice
	for _, s := range n.Sent() {
		if s.Subject == subject && (recipient == "" || s.Recipient == recipient) {
			out = append(out, s)
		}
	}
	return out
}

// Reset forgets recorded notices and call history.
func (n *Notifier) Reset() {
	n.mu.Lock()
	n.sent = nil
	n.mu.Unlock()
	n.Mock = mock.Mock{}
	n.On("Notify", mock.Anything, mock.Anything).Return()
}
