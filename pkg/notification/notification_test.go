package notification

import (
	"context"
	"encoding/json"
	"errors"
	gohttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rasmogul/greatsoko/pkg/mail"
	"github.com/Rasmogul/greatsoko/pkg/queue"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var placed = Notice{
	Recipient: "ada@example.com",
	Subject:   "Your order has been placed",
	Message:   "Thank you for your order!",
}

func TestMailChannelMapsNotice(t *testing.T) {
	m := &recordingMailer{}
	require.NoError(t, NewMailChannel(m).Deliver(context.Background(), placed))

	require.Len(t, m.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, m.sent[0].To)
	assert.Equal(t, placed.Subject, m.sent[0].Subject)
	assert.Equal(t, placed.Message, m.sent[0].Text)
}

func TestMailChannelNeedsRecipient(t *testing.T) {
	err := NewMailChannel(&recordingMailer{}).Deliver(context.Background(), Notice{Subject: "x"})
	assert.Error(t, err)
}

func TestSlackChannelPostsPayload(t *testing.T) {
	var got slackPayload
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(gohttp.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewSlackChannel(srv.URL).Deliver(context.Background(), placed))
	assert.Equal(t, placed.Subject, got.Text)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, placed.Recipient, got.Attachments[0].Title)
}

func TestSlackChannelReportsRejection(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, _ *gohttp.Request) {
		w.WriteHeader(gohttp.StatusForbidden)
	}))
	defer srv.Close()

	assert.Error(t, NewSlackChannel(srv.URL).Deliver(context.Background(), placed))
}

func TestDispatcherJoinsChannelErrors(t *testing.T) {
	ok := &recordingMailer{}
	broken := &recordingMailer{err: errors.New("smtp down")}

	err := NewDispatcher(NewMailChannel(ok), NewMailChannel(broken)).Deliver(context.Background(), placed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, 1, ok.count(), "a failing channel does not stop the others")
}

func TestDispatcherNotifySwallowsErrors(t *testing.T) {
	broken := &recordingMailer{err: errors.New("smtp down")}
	assert.NotPanics(t, func() {
		NewDispatcher(NewMailChannel(broken)).Notify(context.Background(), placed)
	})
}

func TestQueueNotifierDeliversInBackground(t *testing.T) {
	m := &recordingMailer{}
	q := queue.New(queue.NewMemoryDriver(10), queue.Options{Workers: 1})
	RegisterJobs(q, NewDispatcher(NewMailChannel(m)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	NewQueueNotifier(q).Notify(context.Background(), placed)

	require.Eventually(t, func() bool { return m.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	m.mu.Lock()
	assert.Equal(t, placed.Message, m.sent[0].Text)
	m.mu.Unlock()
}

func TestQueueNotifierSwallowsEnqueueErrors(t *testing.T) {
	q := queue.New(queue.NewMemoryDriver(1), queue.Options{})
	n := NewQueueNotifier(q)

	n.Notify(context.Background(), placed)
	assert.NotPanics(t, func() { n.Notify(context.Background(), placed) }, "full queue is logged, not returned")
}
