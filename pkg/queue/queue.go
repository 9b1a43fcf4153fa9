// Package queue runs background jobs with retries.
//
// Usage:
//
//	q := queue.New(queue.NewMemoryDriver())
//	q.Register(func() queue.Job { return &PurgeCartsJob{} })
//	q.Dispatch(ctx, &PurgeCartsJob{PaymentID: id})
//	go q.Run(ctx, 2)
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bistroboss/bistro/pkg/logger"
	"github.com/bistroboss/bistro/pkg/metrics"
)

// Job is the interface every queued job must satisfy. Jobs are JSON encoded
// on dispatch, so state that must survive the trip needs exported fields.
type Job interface {
	Handle(ctx context.Context) error
}

// Named lets a job choose its wire name instead of its Go type name.
type Named interface {
	JobName() string
}

// FailedJob holds information about a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Payload  []byte
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available. A nil payload with a nil
	// error means the wait timed out.
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers that can hold a job until a time.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// FailedStore persists jobs that exhausted their retries.
type FailedStore interface {
	SaveFailed(ctx context.Context, job FailedJob) error
}

// Manager is the central queue hub.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	store    FailedStore
	maxRetry int
	backoff  func(attempt int) time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxRetry sets how many times a failing job is attempted.
func WithMaxRetry(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetry = n
		}
	}
}

// WithBackoff overrides the wait between attempts.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(m *Manager) { m.backoff = fn }
}

// WithFailedStore persists exhausted jobs in addition to the in-memory list.
func WithFailedStore(s FailedStore) Option {
	return func(m *Manager) { m.store = s }
}

func New(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:   driver,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register makes a job type available for decoding. Call it once at boot
// for every job type, before workers start.
func (m *Manager) Register(factory func() Job) {
	name := jobName(factory())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch pushes job onto the queue immediately.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, env)
}

// DispatchAfter pushes job after delay. Drivers without delayed support
// fall back to an in-process timer that is lost on restart.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	if dd, ok := m.driver.(DelayedDriver); ok {
		return dd.PushDelayed(ctx, env, delay)
	}

	time.AfterFunc(delay, func() {
		if err := m.driver.Push(context.Background(), env); err != nil {
			logger.Error("queue: delayed dispatch failed", "error", err)
		}
	})
	return nil
}

func encode(job Job) ([]byte, error) {
	name := jobName(job)

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}

	env, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, nil
}

func jobName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", job), "*")
}

// Run starts n workers and blocks until ctx is cancelled and every worker
// has returned.
func (m *Manager) Run(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	wg.Wait()
}

func (m *Manager) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}

		m.Process(ctx, raw)
	}
}

// Process decodes one envelope and runs its job with retries. Workers call
// it for every popped payload; tests and the CLI may call it directly.
func (m *Manager) Process(ctx context.Context, raw []byte) {
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
		metrics.RecordQueueJob(env.Type, "unregistered")
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		metrics.RecordQueueJob(env.Type, "bad_payload")
		return
	}

	m.runWithRetry(ctx, job, env)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, env envelope) {
	var lastErr error
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if err := job.Handle(ctx); err != nil {
			lastErr = err
			logger.Warn("queue: job failed, retrying",
				"type", env.Type, "attempt", attempt, "error", err)
			if attempt < m.maxRetry && !sleep(ctx, m.backoff(attempt)) {
				break
			}
			continue
		}
		logger.Info("queue: job processed", "type", env.Type)
		metrics.RecordQueueJob(env.Type, "success")
		return
	}

	metrics.RecordQueueJob(env.Type, "failed")
	m.persistFailed(ctx, FailedJob{
		Type:     env.Type,
		Payload:  env.Payload,
		Err:      lastErr,
		FailedAt: time.Now().UTC(),
		Attempts: m.maxRetry,
	})
	logger.Error("queue: job exhausted retries", "type", env.Type, "error", lastErr)
}

// FailedJobs returns a snapshot of the jobs that failed in this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}

// sleep waits for d or until ctx ends. It reports whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
