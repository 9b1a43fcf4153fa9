package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bistroboss/bistro/config"
	"github.com/bistroboss/bistro/internal/server"
)

var queueWorkersFlag int

// bistro queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue workers without the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		app, err := server.Boot(ctx)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}

		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		err = app.Work(ctx, workers)
		fmt.Println("Queue worker stopped.")
		return err
	},
}

// bistro reconcile
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-drive the cart purge of unreconciled payments once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		app, err := server.Boot(ctx)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.Close(closeCtx)
		}()

		report, err := app.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Scanned %d, reconciled %d, failed %d.\n", report.Scanned, report.Reconciled, report.Failed)
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
}
