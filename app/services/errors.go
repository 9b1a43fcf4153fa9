package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/models"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrInvalidID       = errors.New("invalid object id")
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicate       = errors.New("already exists")
	// ErrPartialReconciliation means the payment is stored but some of its
	// cart entries may still exist. Repeating the request is safe.
	ErrPartialReconciliation = errors.New("payment recorded, cart cleanup pending")
	ErrUpstream              = errors.New("upstream failure")
)

// ReconciliationError carries the stored payment alongside the purge
// failure so the caller can still report what was recorded.
type ReconciliationError struct {
	Result models.PaymentRecordResult
	Err    error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPartialReconciliation, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

func (e *ReconciliationError) Is(target error) bool {
	return target == ErrPartialReconciliation
}

// parseID converts a hex string into an ObjectID.
func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

func parseIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := parseID(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
