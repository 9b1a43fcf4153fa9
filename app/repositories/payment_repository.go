package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/pkg/database"
	"github.com/bistroboss/bistro/pkg/metrics"
)

// ItemCount is how many times one menu item was bought across all payments.
type ItemCount struct {
	MenuItemID primitive.ObjectID `bson:"_id"`
	Count      int64              `bson:"count"`
}

// PaymentSummary aggregates one customer's payments.
type PaymentSummary struct {
	Payments int64   `bson:"payments"`
	Items    int64   `bson:"items"`
	Spent    float64 `bson:"spent"`
}

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(store *database.Store) *PaymentRepository {
	return &PaymentRepository{col: store.Collection(database.Payments)}
}

// Insert stores a new payment. A payment whose transactionId is already
// stored fails with ErrDuplicate.
func (r *PaymentRepository) Insert(ctx context.Context, p *models.Payment) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Payments, "insert", time.Now())

	id, err := insertID(ctx, r.col, p)
	if err == nil {
		p.ID = id
	}
	return id, err
}

// FindByTransactionID returns the payment recorded for a provider
// transaction.
func (r *PaymentRepository) FindByTransactionID(ctx context.Context, txID string) (models.Payment, error) {
	defer metrics.ObserveDBQuery(database.Payments, "find_one", time.Now())

	var p models.Payment
	err := r.col.FindOne(ctx, bson.M{"transactionId": txID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, ErrNotFound
	}
	return p, err
}

func (r *PaymentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Payment, error) {
	defer metrics.ObserveDBQuery(database.Payments, "find_one", time.Now())

	var p models.Payment
	err := r.col.FindOne(ctx, byID(id)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, ErrNotFound
	}
	return p, err
}

// ByEmail returns a customer's payment history, newest first.
func (r *PaymentRepository) ByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	defer metrics.ObserveDBQuery(database.Payments, "find", time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return findAll[models.Payment](ctx, r.col, bson.M{"email": email}, opts)
}

// MarkReconciled records that the payment's cart entries are gone.
func (r *PaymentRepository) MarkReconciled(ctx context.Context, id primitive.ObjectID) error {
	defer metrics.ObserveDBQuery(database.Payments, "update", time.Now())

	_, err := r.col.UpdateOne(ctx, byID(id), bson.M{"$set": bson.M{"reconciled": true}})
	return err
}

// Unreconciled lists payments stored before cutoff whose cart purge has
// not been confirmed, oldest first. It filters on the server-side
// createdAt, never on the client-supplied date.
func (r *PaymentRepository) Unreconciled(ctx context.Context, cutoff time.Time, limit int64) ([]models.Payment, error) {
	defer metrics.ObserveDBQuery(database.Payments, "find", time.Now())

	filter := bson.M{"reconciled": bson.M{"$ne": true}, "createdAt": bson.M{"$lt": cutoff}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit)
	return findAll[models.Payment](ctx, r.col, filter, opts)
}

func (r *PaymentRepository) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveDBQuery(database.Payments, "count", time.Now())
	return r.col.EstimatedDocumentCount(ctx)
}

// Revenue sums the price of every payment. No payments means 0.
func (r *PaymentRepository) Revenue(ctx context.Context) (float64, error) {
	defer metrics.ObserveDBQuery(database.Payments, "aggregate", time.Now())

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$price"}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// ItemCounts counts purchases per menu item id across every payment.
func (r *PaymentRepository) ItemCounts(ctx context.Context) ([]ItemCount, error) {
	defer metrics.ObserveDBQuery(database.Payments, "aggregate", time.Now())

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$menuItemIds"}},
		{{Key: "$group", Value: bson.M{"_id": "$menuItemIds", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	out := make([]ItemCount, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SummaryByEmail totals one customer's payments, purchased items and spend.
func (r *PaymentRepository) SummaryByEmail(ctx context.Context, email string) (PaymentSummary, error) {
	defer metrics.ObserveDBQuery(database.Payments, "aggregate", time.Now())

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"email": email}}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"payments": bson.M{"$sum": 1},
			"items":    bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$menuItemIds", bson.A{}}}}},
			"spent":    bson.M{"$sum": "$price"},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return PaymentSummary{}, err
	}

	var rows []PaymentSummary
	if err := cur.All(ctx, &rows); err != nil {
		return PaymentSummary{}, err
	}
	if len(rows) == 0 {
		return PaymentSummary{}, nil
	}
	return rows[0], nil
}
