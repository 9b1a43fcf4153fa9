package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/pkg/database"
	"github.com/bistroboss/bistro/pkg/metrics"
)

type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(store *database.Store) *CartRepository {
	return &CartRepository{col: store.Collection(database.Carts)}
}

// ByEmail lists the open cart entries of one customer.
func (r *CartRepository) ByEmail(ctx context.Context, email string) ([]models.CartEntry, error) {
	defer metrics.ObserveDBQuery(database.Carts, "find", time.Now())
	return findAll[models.CartEntry](ctx, r.col, bson.M{"email": email})
}

func (r *CartRepository) Create(ctx context.Context, entry *models.CartEntry) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Carts, "insert", time.Now())

	id, err := insertID(ctx, r.col, entry)
	if err == nil {
		entry.ID = id
	}
	return id, err
}

func (r *CartRepository) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	defer metrics.ObserveDBQuery(database.Carts, "delete", time.Now())

	res, err := r.col.DeleteOne(ctx, byID(id))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteMany removes every entry in ids. Ids that are already gone are not
// an error, so repeating the call is safe.
func (r *CartRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer metrics.ObserveDBQuery(database.Carts, "delete_many", time.Now())

	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
