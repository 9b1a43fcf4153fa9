package queue

import (
	"context"
	"time"

	"github.com/bistroboss/bistro/pkg/logger"
)

// persistFailed appends job to the in-memory list and, when a FailedStore
// is configured, writes it there too. A store error is logged, not returned;
// the in-memory copy still exists.
func (m *Manager) persistFailed(ctx context.Context, job FailedJob) {
	m.mu.Lock()
	m.failed = append(m.failed, job)
	store := m.store
	m.mu.Unlock()

	if store == nil {
		return
	}

	// The worker context may already be cancelled during shutdown.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := store.SaveFailed(saveCtx, job); err != nil {
		logger.Error("queue: persist failed job", "type", job.Type, "error", err)
	}
}
