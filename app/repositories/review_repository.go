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

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(store *database.Store) *ReviewRepository {
	return &ReviewRepository{col: store.Collection(database.Reviews)}
}

func (r *ReviewRepository) All(ctx context.Context) ([]models.Review, error) {
	defer metrics.ObserveDBQuery(database.Reviews, "find", time.Now())
	return findAll[models.Review](ctx, r.col, bson.M{})
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Reviews, "insert", time.Now())

	id, err := insertID(ctx, r.col, review)
	if err == nil {
		review.ID = id
	}
	return id, err
}

func (r *ReviewRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
