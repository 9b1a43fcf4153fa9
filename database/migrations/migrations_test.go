package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/bistroboss/bistro/pkg/database"
)

func TestCreateIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates every index", func(mt *mtest.T) {
		idx := []database.Index{
			{Collection: database.Users, Name: "users_email_unique", Keys: bson.D{{Key: "email", Value: 1}}, Unique: true},
			{Collection: database.Payments, Name: "payments_email", Keys: bson.D{{Key: "email", Value: 1}}},
		}
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		require.NoError(mt, (&CreateIndexes{indexes: idx}).Up(context.Background(), mt.DB))
	})

	mt.Run("reports the failing index", func(mt *mtest.T) {
		idx := []database.Index{{Collection: database.Users, Name: "users_email_unique", Keys: bson.D{{Key: "email", Value: 1}}, Unique: true}}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Message: "E11000 duplicate key"}))

		err := (&CreateIndexes{indexes: idx}).Up(context.Background(), mt.DB)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "users.users_email_unique")
	})
}
