package controllers

import (
	"net/http"

	"github.com/bistroboss/bistro/app/services"
	"github.com/bistroboss/bistro/pkg/middleware"
	"github.com/bistroboss/bistro/pkg/response"
)

type StatsController struct {
	service *services.StatsService
}

func NewStatsController(service *services.StatsService) *StatsController {
	return &StatsController{service: service}
}

// Admin handles GET /admin-stats.
func (c *StatsController) Admin(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.Admin(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, stats)
}

// User handles GET /user-stats for the authenticated caller.
func (c *StatsController) User(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromCtx(r)
	if !ok {
		fail(w, r, services.ErrUnauthenticated)
		return
	}

	stats, err := c.service.User(r.Context(), email)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, stats)
}

// Orders handles GET /order-stats.
func (c *StatsController) Orders(w http.ResponseWriter, r *http.Request) {
	rows, err := c.service.OrdersByCategory(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, rows)
}
