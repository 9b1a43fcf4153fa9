// Package schedule runs periodic background tasks.
//
//	s := schedule.New()
//	s.Every(5*time.Minute).Name("reconcile").Run(sweep)
//	s.Start(ctx) // blocks until ctx is done
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bistroboss/bistro/pkg/logger"
)

// Task is one unit of scheduled work. It receives the scheduler's context.
type Task func(ctx context.Context)

type entry struct {
	id        string
	interval  time.Duration
	immediate bool
	task      Task

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler dispatches registered tasks once their interval has elapsed.
// A task never overlaps with its own previous run.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Entry is a fluent builder for one task before it is registered.
type Entry struct {
	s *Scheduler
	e *entry
}

// Every starts a builder for a task that runs every d.
func (s *Scheduler) Every(d time.Duration) *Entry {
	return &Entry{s: s, e: &entry{interval: d}}
}

// Name gives the task an identifier for logging.
func (b *Entry) Name(id string) *Entry {
	b.e.id = id
	return b
}

// Immediately makes the first run happen on the first tick instead of one
// interval after start.
func (b *Entry) Immediately() *Entry {
	b.e.immediate = true
	return b
}

// Run registers the task.
func (b *Entry) Run(fn Task) {
	b.e.task = fn
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start dispatches due tasks until ctx is done, then waits for running
// tasks to return.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	started := time.Now()
	for _, e := range s.snapshot() {
		e.mu.Lock()
		if !e.immediate {
			e.lastRun = started
		}
		e.mu.Unlock()
	}

	logger.Info("schedule: scheduler started", "tasks", len(s.snapshot()))
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			for _, e := range s.snapshot() {
				s.dispatch(ctx, e, now)
			}
		}
	}
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entry(nil), s.entries...)
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	due := e.interval > 0 && (e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval)
	if !due || e.running {
		if due {
			logger.Warn("schedule: skipping overlapping task", "id", e.id)
		}
		e.mu.Unlock()
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()

		logger.Debug("schedule: running task", "id", e.id)
		e.task(ctx)
	}()
}

// List describes the registered tasks.
func (s *Scheduler) List() []string {
	out := []string{}
	for _, e := range s.snapshot() {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.id, e.interval))
	}
	return out
}
