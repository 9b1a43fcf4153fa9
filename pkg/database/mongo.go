// Package database owns the MongoDB client shared by every repository.
// Connect once at startup and pass the *Store down; nothing in this package
// keeps a package-level handle.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bistroboss/bistro/pkg/logger"
)

// Collection names.
const (
	Users      = "users"
	Menu       = "menu"
	Reviews    = "reviews"
	Carts      = "carts"
	Payments   = "payments"
	FailedJobs = "failed_jobs"
	Logs       = "logs"
	Migrations = "migrations"
)

// Transaction modes accepted by Config.Transactions.
const (
	TxAuto = "auto"
	TxOn   = "on"
	TxOff  = "off"
)

// Config describes how to reach the store.
type Config struct {
	URI          string
	Database     string
	Transactions string
}

// Store wraps a connected client and the application database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	tx     bool
}

// Connect dials MongoDB, verifies the primary is reachable and decides
// whether multi-document transactions are available.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("database: empty MONGO_URI")
	}

	opts := options.Client().ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(2 * time.Minute)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	s := &Store{client: client, db: client.Database(cfg.Database)}

	switch cfg.Transactions {
	case TxOn:
		s.tx = true
	case TxOff:
		s.tx = false
	default:
		s.tx = detectTransactions(ctx, s.db)
	}

	logger.Info("mongo connected", "database", cfg.Database, "transactions", s.tx)
	return s, nil
}

// Wrap builds a Store around an already connected database, as test
// harnesses do.
func Wrap(db *mongo.Database, transactions bool) *Store {
	return &Store{client: db.Client(), db: db, tx: transactions}
}

// detectTransactions asks the server for its topology. Only replica set
// members and mongos routers accept multi-document transactions.
func detectTransactions(ctx context.Context, db *mongo.Database) bool {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		logger.Warn("mongo topology probe failed, transactions disabled", "error", err)
		return false
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid"
}

// DB returns the application database.
func (s *Store) DB() *mongo.Database { return s.db }

// Collection is shorthand for s.DB().Collection(name).
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// SupportsTransactions reports whether WithTransaction runs atomically.
func (s *Store) SupportsTransactions() bool { return s.tx }

// WithTransaction runs fn inside one multi-document transaction. The context
// handed to fn carries the session; repository calls must use it. The driver
// retries fn on transient transaction errors, so fn must be safe to repeat.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("database: start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Disconnect closes every pooled connection.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
