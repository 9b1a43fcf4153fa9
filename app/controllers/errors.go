package controllers

import (
	"errors"
	"net/http"

	"github.com/bistroboss/bistro/app/services"
	"github.com/bistroboss/bistro/pkg/logger"
	"github.com/bistroboss/bistro/pkg/response"
)

// fail maps a service error to its HTTP status and writes the envelope.
// Unknown errors are logged and answered with a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var rerr *services.ReconciliationError

	switch {
	case errors.As(err, &rerr):
		logger.WithCtx(r.Context()).Warn("payment stored, cart cleanup pending", "error", err)
		response.ErrorWithData(w, http.StatusServiceUnavailable, services.ErrPartialReconciliation.Error(), rerr.Result)
	case errors.Is(err, services.ErrInvalidID), errors.Is(err, services.ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		response.Unauthorized(w)
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(w)
	case errors.Is(err, services.ErrDuplicate):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUpstream):
		logger.WithCtx(r.Context()).Error("upstream call failed", "error", err)
		response.Error(w, http.StatusBadGateway, "payment provider unavailable")
	default:
		logger.WithCtx(r.Context()).Error("request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
