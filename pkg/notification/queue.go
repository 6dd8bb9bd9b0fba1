package notification

import (
	"context"

	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/queue"
)

const deliverJobName = "notification.deliver"

// DeliverJob is the queued form of a notice.
type DeliverJob struct {
	Notice Notice `json:"notice"`

	dispatcher *Dispatcher
}

func (j *DeliverJob) Name() string { return deliverJobName }

func (j *DeliverJob) Handle(ctx context.Context) error {
	return j.dispatcher.Deliver(ctx, j.Notice)
}

// RegisterJobs teaches q to run DeliverJob through d.
func RegisterJobs(q *queue.Manager, d *Dispatcher) {
	q.Register(deliverJobName, func() queue.Job { return &DeliverJob{dispatcher: d} })
}

// QueueNotifier enqueues notices for background delivery.
type QueueNotifier struct {
	q *queue.Manager
}

func NewQueueNotifier(q *queue.Manager) *QueueNotifier { return &QueueNotifier{q: q} }

func (n *QueueNotifier) Notify(ctx context.Context, notice Notice) {
	if err := n.q.Dispatch(ctx, &DeliverJob{Notice: notice}); err != nil {
		logger.WithCtx(ctx).Warn("notification: enqueue failed",
			"recipient", notice.Recipient, "subject", notice.Subject, "error", err)
	}
}
