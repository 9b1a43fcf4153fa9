package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bistroboss/bistro/database/seeders"
	"github.com/bistroboss/bistro/internal/server"
	"github.com/bistroboss/bistro/pkg/database"
	"github.com/bistroboss/bistro/pkg/migration"
)

// withStore connects, runs fn and disconnects.
func withStore(fn func(ctx context.Context, store *database.Store) error) error {
	ctx, stop := signalContext()
	defer stop()

	store, err := server.Connect(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(context.Background()) //nolint:errcheck

	return fn(ctx, store)
}

// bistro migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *database.Store) error {
			n, err := migration.New(store.DB()).Run(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Println("Nothing to migrate.")
				return nil
			}
			fmt.Printf("Migrated %d migration(s).\n", n)
			return nil
		})
	},
}

// bistro migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *database.Store) error {
			n, err := migration.New(store.DB()).Rollback(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Rolled back %d migration(s).\n", n)
			return nil
		})
	},
}

// bistro migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *database.Store) error {
			rows, err := migration.New(store.DB()).Status(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
			for _, r := range rows {
				ran, batch := "no", "-"
				if r.Ran {
					ran, batch = "yes", fmt.Sprint(r.Batch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, r.Name)
			}
			return w.Flush()
		})
	},
}

// bistro seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample menu and reviews into empty collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *database.Store) error {
			n, err := seeders.RunAll(ctx, store.DB())
			if err != nil {
				return err
			}
			fmt.Printf("Seeding complete (%d seeders ran).\n", n)
			return nil
		})
	},
}
