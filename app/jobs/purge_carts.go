// Package jobs holds the background jobs run by the queue workers.
package jobs

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/pkg/metrics"
	"github.com/bistroboss/bistro/pkg/queue"
)

// Reconciler re-drives the cart purge of a stored payment.
type Reconciler interface {
	ReconcileByID(ctx context.Context, paymentID primitive.ObjectID) error
}

// PurgeCartsJob deletes the cart entries of a payment whose purge failed
// while the request was being served.
type PurgeCartsJob struct {
	PaymentID string `json:"paymentId"`

	reconciler Reconciler
}

// NewPurgeCartsJob builds a job ready to dispatch.
func NewPurgeCartsJob(paymentID primitive.ObjectID) *PurgeCartsJob {
	return &PurgeCartsJob{PaymentID: paymentID.Hex()}
}

// PurgeCartsFactory returns the factory registered with the queue manager.
func PurgeCartsFactory(r Reconciler) func() queue.Job {
	return func() queue.Job { return &PurgeCartsJob{reconciler: r} }
}

func (*PurgeCartsJob) JobName() string { return "purge_carts" }

func (j *PurgeCartsJob) Handle(ctx context.Context) error {
	if j.reconciler == nil {
		return fmt.Errorf("purge_carts: no reconciler wired")
	}
	id, err := primitive.ObjectIDFromHex(j.PaymentID)
	if err != nil {
		return fmt.Errorf("purge_carts: payment id %q: %w", j.PaymentID, err)
	}

	if err := j.reconciler.ReconcileByID(ctx, id); err != nil {
		metrics.ReconcileRetries.WithLabelValues("queue", "failed").Inc()
		return err
	}
	metrics.ReconcileRetries.WithLabelValues("queue", "ok").Inc()
	return nil
}
