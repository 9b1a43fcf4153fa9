package migrations

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bistroboss/bistro/pkg/database"
	"github.com/bistroboss/bistro/pkg/logger"
	"github.com/bistroboss/bistro/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_indexes", &CreateIndexes{indexes: database.DefaultIndexes()})
	migration.Register("20260101000001_create_logs_index", &CreateLogsIndex{})
}

// -------- 0001: application indexes --------

// CreateIndexes builds the indexes the repositories rely on, including the
// unique ones behind duplicate-registration and payment-replay detection.
type CreateIndexes struct {
	indexes []database.Index
}

func (m *CreateIndexes) Up(ctx context.Context, db *mongo.Database) error {
	for _, idx := range m.indexes {
		if _, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, idx.Model()); err != nil {
			return fmt.Errorf("index %s.%s: %w", idx.Collection, idx.Name, err)
		}
	}
	return nil
}

func (m *CreateIndexes) Down(ctx context.Context, db *mongo.Database) error {
	for _, idx := range m.indexes {
		if _, err := db.Collection(idx.Collection).Indexes().DropOne(ctx, idx.Name); err != nil {
			return fmt.Errorf("drop index %s.%s: %w", idx.Collection, idx.Name, err)
		}
	}
	return nil
}

// -------- 0002: logs --------

type CreateLogsIndex struct{}

func (m *CreateLogsIndex) Up(ctx context.Context, db *mongo.Database) error {
	return logger.EnsureLogIndex(ctx, db.Collection(database.Logs))
}

func (m *CreateLogsIndex) Down(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(database.Logs).Indexes().DropOne(ctx, "time_-1")
	return err
}
