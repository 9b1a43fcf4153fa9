package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/pkg/database"
	"github.com/bistroboss/bistro/pkg/metrics"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(store *database.Store) *UserRepository {
	return &UserRepository{col: store.Collection(database.Users)}
}

// All returns every registered user.
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	defer metrics.ObserveDBQuery(database.Users, "find", time.Now())
	return findAll[models.User](ctx, r.col, bson.M{})
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	defer metrics.ObserveDBQuery(database.Users, "find_one", time.Now())

	var user models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user, ErrNotFound
	}
	return user, err
}

// Create persists a new user record. A second account with the same email
// fails with ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Users, "insert", time.Now())

	id, err := insertID(ctx, r.col, user)
	if err == nil {
		user.ID = id
	}
	return id, err
}

// SetRole updates the role of the user with the given id.
func (r *UserRepository) SetRole(ctx context.Context, id primitive.ObjectID, role string) (matched, modified int64, err error) {
	defer metrics.ObserveDBQuery(database.Users, "update", time.Now())

	res, err := r.col.UpdateOne(ctx, byID(id), bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// Count returns the collection's estimated document count.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveDBQuery(database.Users, "count", time.Now())
	return r.col.EstimatedDocumentCount(ctx)
}
