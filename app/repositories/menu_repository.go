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

type MenuRepository struct {
	col *mongo.Collection
}

func NewMenuRepository(store *database.Store) *MenuRepository {
	return &MenuRepository{col: store.Collection(database.Menu)}
}

func (r *MenuRepository) All(ctx context.Context) ([]models.MenuItem, error) {
	defer metrics.ObserveDBQuery(database.Menu, "find", time.Now())
	return findAll[models.MenuItem](ctx, r.col, bson.M{})
}

// FindByIDs returns the menu items whose ids are in ids. Unknown ids are
// skipped.
func (r *MenuRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}
	defer metrics.ObserveDBQuery(database.Menu, "find", time.Now())
	return findAll[models.MenuItem](ctx, r.col, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MenuRepository) Create(ctx context.Context, item *models.MenuItem) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Menu, "insert", time.Now())

	id, err := insertID(ctx, r.col, item)
	if err == nil {
		item.ID = id
	}
	return id, err
}

// Delete removes one item and reports how many documents went away.
func (r *MenuRepository) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	defer metrics.ObserveDBQuery(database.Menu, "delete", time.Now())

	res, err := r.col.DeleteOne(ctx, byID(id))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MenuRepository) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveDBQuery(database.Menu, "count", time.Now())
	return r.col.EstimatedDocumentCount(ctx)
}
