package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/jobs"
	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/app/repositories"
	"github.com/bistroboss/bistro/pkg/event"
	"github.com/bistroboss/bistro/pkg/logger"
	"github.com/bistroboss/bistro/pkg/metrics"
	"github.com/bistroboss/bistro/pkg/payment"
	"github.com/bistroboss/bistro/pkg/queue"
)

// IntentProvider creates card payment intents.
type IntentProvider interface {
	CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error)
}

// Dispatcher queues background jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// RecordInput is a completed checkout as reported by the client.
type RecordInput struct {
	Email         string
	Price         float64
	TransactionID string
	Date          time.Time
	CartIDs       []string
	MenuItemIDs   []string
	Status        string
}

// SweepReport summarises one reconciliation sweep.
type SweepReport struct {
	Scanned    int
	Reconciled int
	Failed     int
}

type PaymentService struct {
	payments PaymentStore
	carts    CartStore
	tx       Transactor
	provider IntentProvider
	jobs     Dispatcher
	events   *event.Bus
	currency string
	now      func() time.Time
}

type PaymentDeps struct {
	Payments PaymentStore
	Carts    CartStore
	Tx       Transactor
	Provider IntentProvider
	Jobs     Dispatcher
	Events   *event.Bus
	Currency string
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

func NewPaymentService(d PaymentDeps) *PaymentService {
	currency := d.Currency
	if currency == "" {
		currency = "usd"
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &PaymentService{
		payments: d.Payments,
		carts:    d.Carts,
		tx:       d.Tx,
		provider: d.Provider,
		jobs:     d.Jobs,
		events:   d.Events,
		currency: currency,
		now:      now,
	}
}

// AmountInCents converts a decimal price to the provider's smallest unit,
// truncating toward zero: 10.999 becomes 1099.
func AmountInCents(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("%w: price must be a positive number", ErrInvalidInput)
	}
	cents := price * 100
	if cents >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: price too large", ErrInvalidInput)
	}
	amount := int64(cents)
	if amount < 1 {
		return 0, fmt.Errorf("%w: price rounds to zero", ErrInvalidInput)
	}
	return amount, nil
}

// CreateIntent asks the provider for a card payment intent and returns only
// its client secret. Nothing is stored locally.
func (s *PaymentService) CreateIntent(ctx context.Context, price float64) (string, error) {
	amount, err := AmountInCents(price)
	if err != nil {
		return "", err
	}

	intent, err := s.provider.CreateIntent(ctx, payment.IntentRequest{Amount: amount, Currency: s.currency})
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("%w: create payment intent: %v", ErrUpstream, err)
	}
	metrics.PaymentIntents.WithLabelValues("created").Inc()
	return intent.ClientSecret, nil
}

// History lists the payments of email, newest first.
func (s *PaymentService) History(ctx context.Context, email string) ([]models.Payment, error) {
	return s.payments.ByEmail(ctx, email)
}

// Record stores a completed checkout and removes its cart entries.
//
// With transaction support both writes commit together. Without it the
// payment is inserted first and the carts deleted second; a failed delete
// leaves the payment unreconciled, queues a retry and returns a
// *ReconciliationError. A transaction id that is already stored is treated
// as a retry of the same checkout: nothing new is inserted and the purge is
// re-driven.
func (s *PaymentService) Record(ctx context.Context, in RecordInput) (models.PaymentRecordResult, error) {
	p, err := s.newPayment(in)
	if err != nil {
		return models.PaymentRecordResult{}, err
	}

	var res models.PaymentRecordResult
	if s.tx != nil && s.tx.SupportsTransactions() {
		res, err = s.recordAtomic(ctx, p)
	} else {
		res, err = s.recordSequential(ctx, p)
	}

	if errors.Is(err, repositories.ErrDuplicate) {
		return s.replay(ctx, p)
	}
	return res, err
}

func (s *PaymentService) newPayment(in RecordInput) (models.Payment, error) {
	email := strings.TrimSpace(in.Email)
	txID := strings.TrimSpace(in.TransactionID)
	switch {
	case email == "":
		return models.Payment{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case txID == "":
		return models.Payment{}, fmt.Errorf("%w: transactionId is required", ErrInvalidInput)
	case math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0:
		return models.Payment{}, fmt.Errorf("%w: price must be a non-negative number", ErrInvalidInput)
	}

	cartIDs, err := parseIDs(in.CartIDs)
	if err != nil {
		return models.Payment{}, err
	}
	menuIDs, err := parseIDs(in.MenuItemIDs)
	if err != nil {
		return models.Payment{}, err
	}

	created := s.now()
	date := in.Date
	if date.IsZero() {
		date = created
	}
	status := in.Status
	if status == "" {
		status = models.PaymentStatusPending
	}

	return models.Payment{
		Email:         email,
		Price:         in.Price,
		TransactionID: txID,
		Date:          date,
		CreatedAt:     created,
		CartIDs:       cartIDs,
		MenuItemIDs:   menuIDs,
		Status:        status,
	}, nil
}

func (s *PaymentService) recordAtomic(ctx context.Context, p models.Payment) (models.PaymentRecordResult, error) {
	var res models.PaymentRecordResult

	err := s.tx.WithTransaction(ctx, func(tctx context.Context) error {
		// fn may run more than once on transient errors; start clean.
		doc := p
		doc.ID = primitive.NilObjectID
		doc.Reconciled = true

		id, err := s.payments.Insert(tctx, &doc)
		if err != nil {
			return err
		}
		n, err := s.carts.DeleteMany(tctx, doc.CartIDs)
		if err != nil {
			return err
		}

		res = recordResult(id, n)
		return nil
	})
	if err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			metrics.PaymentsRecorded.WithLabelValues("failed").Inc()
		}
		return models.PaymentRecordResult{}, err
	}

	metrics.PaymentsRecorded.WithLabelValues("reconciled").Inc()
	metrics.CartEntriesPurged.Add(float64(res.DeleteResult.DeletedCount))
	s.events.FireAsync(ctx, event.PaymentRecorded, p.TransactionID)
	return res, nil
}

func (s *PaymentService) recordSequential(ctx context.Context, p models.Payment) (models.PaymentRecordResult, error) {
	id, err := s.payments.Insert(ctx, &p)
	if err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			metrics.PaymentsRecorded.WithLabelValues("failed").Inc()
		}
		return models.PaymentRecordResult{}, err
	}
	s.events.FireAsync(ctx, event.PaymentRecorded, p.TransactionID)

	n, err := s.purge(ctx, p)
	if err != nil {
		metrics.PaymentsRecorded.WithLabelValues("partial").Inc()
		s.queueRetry(ctx, id)
		res := recordResult(id, 0)
		res.DeleteResult.Acknowledged = false
		return models.PaymentRecordResult{}, &ReconciliationError{Result: res, Err: err}
	}

	metrics.PaymentsRecorded.WithLabelValues("reconciled").Inc()
	return recordResult(id, n), nil
}

// replay answers a checkout whose transaction id is already stored.
func (s *PaymentService) replay(ctx context.Context, p models.Payment) (models.PaymentRecordResult, error) {
	existing, err := s.payments.FindByTransactionID(ctx, p.TransactionID)
	if err != nil {
		return models.PaymentRecordResult{}, fmt.Errorf("load replayed payment %s: %w", p.TransactionID, err)
	}
	if existing.Email != p.Email {
		return models.PaymentRecordResult{}, fmt.Errorf("%w: transaction %s belongs to another customer", ErrDuplicate, p.TransactionID)
	}

	metrics.PaymentsRecorded.WithLabelValues("replayed").Inc()
	res := recordResult(existing.ID, 0)
	res.Replayed = true
	if existing.Reconciled {
		return res, nil
	}

	n, err := s.purge(ctx, existing)
	if err != nil {
		s.queueRetry(ctx, existing.ID)
		res.DeleteResult.Acknowledged = false
		return models.PaymentRecordResult{}, &ReconciliationError{Result: res, Err: err}
	}
	res.DeleteResult.DeletedCount = n
	return res, nil
}

// purge deletes the payment's cart entries and marks it reconciled. A
// failure to set the flag is logged only; the next sweep repeats the
// idempotent delete and sets it.
func (s *PaymentService) purge(ctx context.Context, p models.Payment) (int64, error) {
	n, err := s.carts.DeleteMany(ctx, p.CartIDs)
	if err != nil {
		return 0, fmt.Errorf("delete carts of payment %s: %w", p.ID.Hex(), err)
	}
	metrics.CartEntriesPurged.Add(float64(n))

	if err := s.payments.MarkReconciled(ctx, p.ID); err != nil {
		logger.WithCtx(ctx).Warn("payment: mark reconciled failed", "payment_id", p.ID.Hex(), "error", err)
	}
	return n, nil
}

func (s *PaymentService) queueRetry(ctx context.Context, id primitive.ObjectID) {
	log := logger.WithCtx(ctx)
	if s.jobs == nil {
		log.Warn("payment: cart purge failed, left for the sweep", "payment_id", id.Hex())
		return
	}
	if err := s.jobs.Dispatch(context.WithoutCancel(ctx), jobs.NewPurgeCartsJob(id)); err != nil {
		log.Error("payment: queue cart purge retry", "payment_id", id.Hex(), "error", err)
		return
	}
	log.Warn("payment: cart purge failed, retry queued", "payment_id", id.Hex())
}

// ReconcileByID re-drives the cart purge of one stored payment. It
// satisfies jobs.Reconciler.
func (s *PaymentService) ReconcileByID(ctx context.Context, id primitive.ObjectID) error {
	p, err := s.payments.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: payment %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return err
	}
	if p.Reconciled {
		return nil
	}
	_, err = s.purge(ctx, p)
	return err
}

// Sweep re-drives the purge of every unreconciled payment stored more
// than grace ago, at most limit per call.
func (s *PaymentService) Sweep(ctx context.Context, grace time.Duration, limit int64) (SweepReport, error) {
	pending, err := s.payments.Unreconciled(ctx, s.now().Add(-grace), limit)
	if err != nil {
		return SweepReport{}, err
	}

	report := SweepReport{Scanned: len(pending)}
	for _, p := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if _, err := s.purge(ctx, p); err != nil {
			report.Failed++
			metrics.ReconcileRetries.WithLabelValues("sweep", "failed").Inc()
			logger.WithCtx(ctx).Warn("payment: sweep purge failed", "payment_id", p.ID.Hex(), "error", err)
			continue
		}
		report.Reconciled++
		metrics.ReconcileRetries.WithLabelValues("sweep", "ok").Inc()
	}
	return report, nil
}

func recordResult(id primitive.ObjectID, deleted int64) models.PaymentRecordResult {
	return models.PaymentRecordResult{
		PaymentResult: models.InsertResult{Acknowledged: true, InsertedID: id},
		DeleteResult:  models.DeleteResult{Acknowledged: true, DeletedCount: deleted},
	}
}
