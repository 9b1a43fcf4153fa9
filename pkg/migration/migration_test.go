package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/bistroboss/bistro/pkg/database"
)

type stepMigration struct {
	ups, downs *[]string
	name       string
	err        error
}

func (s stepMigration) Up(context.Context, *mongo.Database) error {
	*s.ups = append(*s.ups, s.name)
	return s.err
}

func (s stepMigration) Down(context.Context, *mongo.Database) error {
	*s.downs = append(*s.downs, s.name)
	return nil
}

func ns(mt *mtest.T) string {
	return mt.DB.Name() + "." + database.Migrations
}

func TestRunner(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	var ups, downs []string
	step := func(name string) registered {
		return registered{name: name, m: stepMigration{ups: &ups, downs: &downs, name: name}}
	}

	mt.Run("runs pending in name order", func(mt *mtest.T) {
		ups = nil
		r := newRunner(mt.DB, []registered{step("0002_b"), step("0001_a"), step("0003_c")})

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
				bson.D{{Key: "name", Value: "0001_a"}, {Key: "batch", Value: 1}}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		n, err := r.Run(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, 2, n)
		assert.Equal(mt, []string{"0002_b", "0003_c"}, ups)
	})

	mt.Run("stops at the first failure", func(mt *mtest.T) {
		ups = nil
		failing := registered{name: "0001_a", m: stepMigration{ups: &ups, downs: &downs, name: "0001_a", err: errors.New("boom")}}
		r := newRunner(mt.DB, []registered{failing, step("0002_b")})

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		n, err := r.Run(context.Background())
		require.Error(mt, err)
		assert.Zero(mt, n)
		assert.Equal(mt, []string{"0001_a"}, ups)
	})

	mt.Run("rolls back only the last batch", func(mt *mtest.T) {
		downs = nil
		r := newRunner(mt.DB, []registered{step("0001_a"), step("0002_b"), step("0003_c")})

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
				bson.D{{Key: "name", Value: "0001_a"}, {Key: "batch", Value: 1}},
				bson.D{{Key: "name", Value: "0002_b"}, {Key: "batch", Value: 2}},
				bson.D{{Key: "name", Value: "0003_c"}, {Key: "batch", Value: 2}},
			),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		n, err := r.Rollback(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, 2, n)
		assert.Equal(mt, []string{"0003_c", "0002_b"}, downs)
	})

	mt.Run("status", func(mt *mtest.T) {
		r := newRunner(mt.DB, []registered{step("0001_a"), step("0002_b")})

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			bson.D{{Key: "name", Value: "0001_a"}, {Key: "batch", Value: 1}}))

		rows, err := r.Status(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []Status{{Name: "0001_a", Batch: 1, Ran: true}, {Name: "0002_b"}}, rows)
	})
}
