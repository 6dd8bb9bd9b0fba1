// Package schedule runs periodic background tasks inside the serve process:
//
//	s := schedule.New()
//	s.Every("grpc:health", 10*time.Second, health.Probe).WithoutOverlapping()
//	s.Every("catalog:warm-top", time.Minute, warmTop)
//	go s.Run(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Rasmogul/greatsoko/pkg/logger"
)

// Task is one unit of scheduled work. It receives the scheduler's context.
type Task func(ctx context.Context)

type entry struct {
	id        string
	interval  time.Duration
	task      Task
	noOverlap bool
	immediate bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Entry is the fluent handle returned by Every.
type Entry struct{ e *entry }

// WithoutOverlapping skips a tick while the previous run is still going.
func (e *Entry) WithoutOverlapping() *Entry {
	e.e.noOverlap = true
	return e
}

// Delayed waits one interval before the first run instead of running at
// start.
func (e *Entry) Delayed() *Entry {
	e.e.immediate = false
	return e
}

// Scheduler dispatches registered entries from a one second tick.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Every registers task under id. Intervals below one tick run every tick.
func (s *Scheduler) Every(id string, interval time.Duration, task Task) *Entry {
	e := &entry{id: id, interval: interval, task: task, immediate: true}
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return &Entry{e: e}
}

// List describes the registered entries for the CLI.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.id, e.interval))
	}
	return out
}

// Run blocks until ctx is done, then waits for in-flight tasks.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("schedule: started", "tasks", len(s.snapshot()))
	start := time.Now()
	for _, e := range s.snapshot() {
		if !e.immediate {
			e.lastRun = start
		}
	}

	t := time.NewTicker(s.tick)
	defer t.Stop()

	s.dispatchDue(ctx, start)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: stopped")
			return
		case now := <-t.C:
			s.dispatchDue(ctx, now)
		}
	}
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entry(nil), s.entries...)
}

func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	for _, e := range s.snapshot() {
		s.dispatch(ctx, e, now)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	due := e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
	if !due {
		e.mu.Unlock()
		return
	}
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping run", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()
		e.task(ctx)
	}()
}
