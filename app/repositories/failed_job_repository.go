package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bistroboss/bistro/pkg/database"
	"github.com/bistroboss/bistro/pkg/metrics"
	"github.com/bistroboss/bistro/pkg/queue"
)

// FailedJobRecord is the document kept for a queue job that exhausted its
// retries.
type FailedJobRecord struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	JobType  string             `bson:"jobType"`
	Payload  string             `bson:"payload"`
	Error    string             `bson:"error"`
	Attempts int                `bson:"attempts"`
	FailedAt time.Time          `bson:"failedAt"`
}

// FailedJobRepository implements queue.FailedStore on the failed_jobs
// collection.
type FailedJobRepository struct {
	col *mongo.Collection
}

func NewFailedJobRepository(store *database.Store) *FailedJobRepository {
	return &FailedJobRepository{col: store.Collection(database.FailedJobs)}
}

func (r *FailedJobRepository) SaveFailed(ctx context.Context, job queue.FailedJob) error {
	defer metrics.ObserveDBQuery(database.FailedJobs, "insert", time.Now())

	rec := FailedJobRecord{
		JobType:  job.Type,
		Payload:  string(job.Payload),
		Attempts: job.Attempts,
		FailedAt: job.FailedAt,
	}
	if job.Err != nil {
		rec.Error = job.Err.Error()
	}
	_, err := r.col.InsertOne(ctx, rec)
	return err
}
