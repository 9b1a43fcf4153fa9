// Package seeders provides a registry of database seed functions.
//
// Usage (define a seeder in any file in this package):
//
//	func init() {
//	    seeders.Register("menu", SeedMenu)
//	}
//
// Then run via CLI: bistro seed
package seeders

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bistroboss/bistro/pkg/logger"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, db *mongo.Database) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

// Registry runs seeders in registration order.
type Registry struct {
	mu      sync.Mutex
	entries []seederEntry
}

var defaultRegistry = &Registry{}

// Register adds a seeder to the global registry.
func Register(name string, fn SeederFunc) { defaultRegistry.Register(name, fn) }

// RunAll executes every globally registered seeder.
func RunAll(ctx context.Context, db *mongo.Database) (int, error) {
	return defaultRegistry.RunAll(ctx, db)
}

func (r *Registry) Register(name string, fn SeederFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, seederEntry{name: name, fn: fn})
}

// RunAll stops on the first error and returns how many seeders finished.
func (r *Registry) RunAll(ctx context.Context, db *mongo.Database) (int, error) {
	r.mu.Lock()
	current := append([]seederEntry(nil), r.entries...)
	r.mu.Unlock()

	for i, e := range current {
		logger.Info("seed: running", "seeder", e.name)
		if err := e.fn(ctx, db); err != nil {
			return i, fmt.Errorf("seeder %q: %w", e.name, err)
		}
	}
	return len(current), nil
}
