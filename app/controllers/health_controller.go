package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/bistroboss/bistro/pkg/logger"
	"github.com/bistroboss/bistro/pkg/response"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store Pinger
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store}
}

// Home handles GET /.
func (c *HealthController) Home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello World!"))
}

// Health handles GET /healthz.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		logger.WithCtx(r.Context()).Error("health: store ping failed", "error", err)
		response.ErrorWithData(w, http.StatusServiceUnavailable, "store unreachable", map[string]string{"mongo": "down"})
		return
	}
	response.Success(w, map[string]string{"mongo": "ok"})
}
