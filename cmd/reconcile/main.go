// Command reconcile runs the batch reconciliation from the command line:
// it evaluates one or all pending billing cycles for a user and prints what
// was linked, what needs a human choice and what had no match.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/billsync/reconcile-backend/internal/application/reconcile"
	"github.com/billsync/reconcile-backend/internal/infrastructure/config"
	"github.com/billsync/reconcile-backend/internal/infrastructure/logging"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		dbPath     = flag.String("db", "", "Override the configured database path")
		user       = flag.String("user", "", "User to reconcile (required)")
		cycle      = flag.String("cycle", "", "Billing cycle YYYY-MM (empty = all pending)")
		dryRun     = flag.Bool("dry-run", false, "Report candidates without linking")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "usage: reconcile -user <id> [-cycle YYYY-MM] [-dry-run]")
		os.Exit(2)
	}

	cfg := config.LoadOrEnvWithPath(*configFile)
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLogger(cfg.Observability.Logging)

	matchingCfg, err := cfg.Matching.Domain()
	if err != nil {
		logger.Error("Invalid matching configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	path := cfg.Storage.DatabasePath
	if *dbPath != "" {
		path = *dbPath
	}
	store, err := storage.NewStorage(path)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	service := reconcile.NewService(store, matchingCfg, logger)
	ctx := context.Background()

	if *dryRun {
		if err := printPending(ctx, service, *user, *cycle); err != nil {
			logger.Error("Reconciliation preview failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	result, err := service.Reconcile(ctx, *user, *cycle)
	if err != nil {
		logger.Error("Reconciliation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, d := range result.AutoLinked {
		fmt.Printf("linked   %s -> bill %s (%s, diff %s, %d transactions)\n",
			d.Cycle, d.BillID, d.Confidence, d.Difference, d.TransactionsLinked)
	}
	for _, d := range result.RequiresSelection {
		fmt.Printf("choose   %s: %d candidates\n", d.Cycle, len(d.Candidates))
		for _, c := range d.Candidates {
			fmt.Printf("         %s  %s  %s (%s, diff %s)\n",
				c.BillID, c.Date.Format("2006-01-02"), c.Amount, c.Confidence, c.Difference)
		}
	}
	for _, d := range result.NoMatch {
		fmt.Printf("no match %s\n", d.Cycle)
	}
	fmt.Printf("%d linked, %d need selection, %d without match\n",
		len(result.AutoLinked), len(result.RequiresSelection), len(result.NoMatch))
}

// printPending shows what a reconciliation run would consider, without
// mutating anything.
func printPending(ctx context.Context, service *reconcile.Service, user, cycle string) error {
	overview, err := service.GetPendingReconciliations(ctx, user)
	if err != nil {
		return err
	}

	for _, pending := range overview.PendingCycles {
		if cycle != "" && pending.Cycle != cycle {
			continue
		}
		fmt.Printf("pending  %s: %d transactions totalling %s\n",
			pending.Cycle, pending.TransactionCount, pending.Total)
		for _, c := range pending.Candidates {
			fmt.Printf("         %s  %s  %s (%s, diff %s)\n",
				c.BillID, c.Date.Format("2006-01-02"), c.Amount, c.Confidence, c.Difference)
		}
	}
	fmt.Printf("%d pending cycles, %d linked, pending total %s\n",
		overview.Summary.PendingCycles, overview.Summary.LinkedCycles, overview.Summary.PendingTotal)
	return nil
}
