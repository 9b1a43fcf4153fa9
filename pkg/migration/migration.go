// Package migration runs versioned schema changes against the document
// store: index creation, backfills and the like.
//
// Usage (in database/migrations):
//
//	func init() {
//	    migration.Register("20260101000000_create_indexes", &CreateIndexes{})
//	}
//
// Run from the CLI:
//
//	bistro migrate             // run all pending
//	bistro migrate:rollback    // roll back the last batch
//	bistro migrate:status
package migration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bistroboss/bistro/pkg/database"
	"github.com/bistroboss/bistro/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(ctx context.Context, db *mongo.Database) error
	Down(ctx context.Context, db *mongo.Database) error
}

// Record is one applied migration in the tracking collection.
type Record struct {
	Name  string    `bson:"name"`
	Batch int       `bson:"batch"`
	RunAt time.Time `bson:"runAt"`
}

// Status is one line of migrate:status.
type Status struct {
	Name  string
	Batch int
	Ran   bool
}

// ------------------- Registry -------------------

type registered struct {
	name string
	m    Migration
}

var registry []registered

// Register adds a migration to the global registry. name should be
// timestamp-prefixed; migrations run in name order.
func Register(name string, m Migration) {
	registry = append(registry, registered{name: name, m: m})
}

// ------------------- Runner -------------------

// Runner executes and tracks migrations.
type Runner struct {
	db         *mongo.Database
	migrations []registered
}

// New creates a Runner over every registered migration.
func New(db *mongo.Database) *Runner {
	return newRunner(db, registry)
}

func newRunner(db *mongo.Database, ms []registered) *Runner {
	sorted := append([]registered(nil), ms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	return &Runner{db: db, migrations: sorted}
}

func (r *Runner) tracking() *mongo.Collection {
	return r.db.Collection(database.Migrations)
}

func (r *Runner) applied(ctx context.Context) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "batch", Value: 1}, {Key: "name", Value: 1}})
	cur, err := r.tracking().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Run applies every pending migration as one batch and returns how many ran.
func (r *Runner) Run(ctx context.Context) (int, error) {
	done, err := r.applied(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration: fetch applied: %w", err)
	}

	ran := make(map[string]bool, len(done))
	batch := 1
	for _, rec := range done {
		ran[rec.Name] = true
		if rec.Batch >= batch {
			batch = rec.Batch + 1
		}
	}

	count := 0
	for _, reg := range r.migrations {
		if ran[reg.name] {
			continue
		}
		logger.Info("migration: running", "name", reg.name, "batch", batch)
		if err := reg.m.Up(ctx, r.db); err != nil {
			return count, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		rec := Record{Name: reg.name, Batch: batch, RunAt: time.Now().UTC()}
		if _, err := r.tracking().InsertOne(ctx, rec); err != nil {
			return count, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		count++
	}

	logger.Info("migration: done", "ran", count)
	return count, nil
}

// Rollback reverses the most recent batch, newest first, and returns how
// many were rolled back.
func (r *Runner) Rollback(ctx context.Context) (int, error) {
	done, err := r.applied(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration: fetch applied: %w", err)
	}
	if len(done) == 0 {
		return 0, nil
	}

	last := done[len(done)-1].Batch
	byName := make(map[string]Migration, len(r.migrations))
	for _, reg := range r.migrations {
		byName[reg.name] = reg.m
	}

	count := 0
	for i := len(done) - 1; i >= 0 && done[i].Batch == last; i-- {
		name := done[i].Name
		m, ok := byName[name]
		if !ok {
			return count, fmt.Errorf("migration: cannot roll back %s: not registered", name)
		}

		logger.Info("migration: rolling back", "name", name)
		if err := m.Down(ctx, r.db); err != nil {
			return count, fmt.Errorf("migration: %s down: %w", name, err)
		}
		if _, err := r.tracking().DeleteOne(ctx, bson.D{{Key: "name", Value: name}}); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Status lists every registered migration and whether it has run.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	done, err := r.applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: fetch applied: %w", err)
	}

	batches := make(map[string]int, len(done))
	for _, rec := range done {
		batches[rec.Name] = rec.Batch
	}

	out := make([]Status, 0, len(r.migrations))
	for _, reg := range r.migrations {
		b, ok := batches[reg.name]
		out = append(out, Status{Name: reg.name, Batch: b, Ran: ok})
	}
	return out, nil
}
