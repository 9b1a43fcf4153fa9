package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index is one named index on a collection.
type Index struct {
	Collection string
	Name       string
	Keys       bson.D
	Unique     bool
}

// Model converts the index into the driver's representation.
func (i Index) Model() mongo.IndexModel {
	opts := options.Index().SetName(i.Name)
	if i.Unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: i.Keys, Options: opts}
}

// DefaultIndexes are the indexes the application relies on. The two unique
// indexes back duplicate-registration and payment-replay detection.
func DefaultIndexes() []Index {
	return []Index{
		{Collection: Users, Name: "users_email_unique", Keys: bson.D{{Key: "email", Value: 1}}, Unique: true},
		{Collection: Carts, Name: "carts_email", Keys: bson.D{{Key: "email", Value: 1}}},
		{Collection: Payments, Name: "payments_transaction_unique", Keys: bson.D{{Key: "transactionId", Value: 1}}, Unique: true},
		{Collection: Payments, Name: "payments_email", Keys: bson.D{{Key: "email", Value: 1}}},
		{Collection: Payments, Name: "payments_reconciled", Keys: bson.D{{Key: "reconciled", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Collection: Menu, Name: "menu_category", Keys: bson.D{{Key: "category", Value: 1}}},
		{Collection: FailedJobs, Name: "failed_jobs_failed_at", Keys: bson.D{{Key: "failedAt", Value: -1}}},
	}
}

// EnsureIndexes creates every index in idx. Creating an index that already
// exists with the same definition is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context, idx []Index) error {
	for _, i := range idx {
		if _, err := s.Collection(i.Collection).Indexes().CreateOne(ctx, i.Model()); err != nil {
			return fmt.Errorf("database: index %s.%s: %w", i.Collection, i.Name, err)
		}
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
