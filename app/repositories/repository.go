// Package repositories holds the MongoDB access code for each collection.
// Every method takes the caller's context so a session context from
// database.Store.WithTransaction flows through unchanged.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bistroboss/bistro/pkg/database"
)

var (
	// ErrNotFound is returned when a single-document lookup matches nothing.
	ErrNotFound = errors.New("repositories: document not found")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("repositories: duplicate key")
)

// findAll decodes every document matching filter into a slice. An empty
// result is an empty slice, never nil, so it encodes as [].
func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// insertID inserts doc and returns the generated ObjectID.
func insertID(ctx context.Context, col *mongo.Collection, doc interface{}) (primitive.ObjectID, error) {
	res, err := col.InsertOne(ctx, doc)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("repositories: unexpected inserted id %T", res.InsertedID)
	}
	return id, nil
}

func byID(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id}
}
