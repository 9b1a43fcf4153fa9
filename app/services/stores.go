package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/app/repositories"
)

// The store interfaces below are satisfied by the Mongo repositories and by
// in-memory fakes in tests.

type UserStore interface {
	All(ctx context.Context) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) (matched, modified int64, err error)
	Count(ctx context.Context) (int64, error)
}

type MenuStore interface {
	All(ctx context.Context) ([]models.MenuItem, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) (primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type ReviewStore interface {
	All(ctx context.Context) ([]models.Review, error)
}

type CartStore interface {
	ByEmail(ctx context.Context, email string) ([]models.CartEntry, error)
	Create(ctx context.Context, entry *models.CartEntry) (primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type PaymentStore interface {
	Insert(ctx context.Context, p *models.Payment) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Payment, error)
	FindByTransactionID(ctx context.Context, txID string) (models.Payment, error)
	ByEmail(ctx context.Context, email string) ([]models.Payment, error)
	MarkReconciled(ctx context.Context, id primitive.ObjectID) error
	Unreconciled(ctx context.Context, cutoff time.Time, limit int64) ([]models.Payment, error)
	Count(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
	ItemCounts(ctx context.Context) ([]repositories.ItemCount, error)
	SummaryByEmail(ctx context.Context, email string) (repositories.PaymentSummary, error)
}

// Transactor runs fn atomically when the store supports it.
type Transactor interface {
	SupportsTransactions() bool
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
