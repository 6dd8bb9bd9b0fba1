// Package queue runs background jobs, mainly outbound notifications.
//
//	q := queue.New(queue.NewMemoryDriver(1000), queue.Options{Workers: 4})
//	q.Register("notification.deliver", func() queue.Job { return &DeliverJob{} })
//	go q.Run(ctx)
//
//	_ = q.Dispatch(ctx, &DeliverJob{...})
//
// Jobs travel as JSON envelopes so the Redis driver can hand them to a
// separate `queue:work` process.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/metrics"
	"github.com/Rasmogul/greatsoko/pkg/workerpool"
)

// Job is a unit of background work. Name keys the registry used to decode
// the job on the worker side.
type Job interface {
	Name() string
	Handle(ctx context.Context) error
}

// Driver stores envelopes. Pop returns (nil, nil) when nothing arrived
// before its own poll timeout.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// Options tune a Manager. Zero values get defaults.
type Options struct {
	Workers     int
	MaxAttempts int
	Backoff     time.Duration // first retry delay, doubled per attempt
	Failed      FailedStore
}

// Manager dispatches and runs jobs.
type Manager struct {
	driver Driver
	opts   Options

	mu       sync.RWMutex
	registry map[string]func() Job
}

func New(driver Driver, opts Options) *Manager {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Failed == nil {
		opts.Failed = NewMemoryFailedStore()
	}
	return &Manager{driver: driver, opts: opts, registry: map[string]func() Job{}}
}

// Register makes a job type decodable by name. factory may close over
// dependencies the job needs but does not serialise.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

// Failed exposes the failed-job store.
func (m *Manager) Failed() FailedStore { return m.opts.Failed }

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", job.Name(), err)
	}
	env, err := json.Marshal(envelope{Type: job.Name(), Payload: payload})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return m.driver.Push(ctx, env)
}

// Run pulls jobs until ctx is cancelled, then waits for in-flight jobs.
func (m *Manager) Run(ctx context.Context) error {
	pool := workerpool.New(m.opts.Workers, workerpool.OnPanic(func(v any) {
		logger.Error("queue: job panicked", "panic", v)
	}))
	defer pool.Shutdown()

	logger.Info("queue: workers started", "count", m.opts.Workers)

	for {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("queue: pop failed", "error", err)
			if !sleep(ctx, 500*time.Millisecond) {
				return nil
			}
			continue
		}
		if raw == nil {
			continue
		}

		// Jobs already pulled still run after ctx is cancelled.
		runCtx := context.WithoutCancel(ctx)
		if err := pool.SubmitWait(ctx, func() { m.process(runCtx, raw) }); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				m.process(runCtx, raw)
				return nil
			}
			return err
		}
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		m.fail(ctx, env, fmt.Errorf("unregistered job type %q", env.Type), 0)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		m.fail(ctx, env, err, 0)
		return
	}

	start := time.Now()
	if err := m.runWithRetry(ctx, job); err != nil {
		metrics.RecordQueueJob(env.Type, "failed", start)
		logger.Error("queue: job exhausted retries", "type", env.Type, "error", err)
		m.fail(ctx, env, err, m.opts.MaxAttempts)
		return
	}
	metrics.RecordQueueJob(env.Type, "processed", start)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job) error {
	var lastErr error
	backoff := m.opts.Backoff
	for attempt := 1; attempt <= m.opts.MaxAttempts; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			return nil
		}
		if attempt == m.opts.MaxAttempts {
			break
		}
		logger.Warn("queue: job failed, retrying",
			"type", job.Name(), "attempt", attempt, "error", lastErr)
		if !sleep(ctx, backoff) {
			return lastErr
		}
		backoff *= 2
	}
	return lastErr
}

func (m *Manager) fail(ctx context.Context, env envelope, cause error, attempts int) {
	rec := FailedJob{
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    cause.Error(),
		Attempts: attempts,
		FailedAt: time.Now(),
	}
	if err := m.opts.Failed.Record(ctx, rec); err != nil {
		logger.Error("queue: record failed job", "type", env.Type, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
