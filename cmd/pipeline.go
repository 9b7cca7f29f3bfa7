package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/underwriting-cli/internal/extract"
	"github.com/sells-group/underwriting-cli/internal/fingerprint"
	"github.com/sells-group/underwriting-cli/internal/grouping"
	"github.com/sells-group/underwriting-cli/internal/pipeline"
	"github.com/sells-group/underwriting-cli/internal/reconcile"
	"github.com/sells-group/underwriting-cli/internal/store"
	"github.com/sells-group/underwriting-cli/internal/validate"
	"github.com/sells-group/underwriting-cli/internal/workbook"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Structural intake pipeline",
	Long:  "Runs the phased intake pipeline: discover, group, map, conflicts, extract, validate. Each phase persists its output under the working directory and refuses to run before its prerequisite completes.",
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}

// newOrchestrator wires the pipeline components. The store is only opened
// when live persistence is required.
func newOrchestrator(withStore bool) (*pipeline.Orchestrator, func(), error) {
	opener := workbook.NewXLSXOpener()
	extractor := extract.New(opener)

	var st store.Store
	cleanup := func() {}
	if withStore {
		sqlite, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(context.Background()); err != nil {
			sqlite.Close()
			return nil, nil, err
		}
		st = sqlite
		cleanup = func() { sqlite.Close() }
	}

	orch := pipeline.New(
		cfg,
		fingerprint.NewEngine(opener, cfg.Fingerprint),
		grouping.NewEngine(cfg.Grouping),
		reconcile.New(cfg.Reconcile),
		extractor,
		validate.New(extractor, cfg.Validate),
		st,
	)
	return orch, cleanup, nil
}

// propertyPool opens a pgxpool for the canonical property registry.
func propertyPool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Registry.PropertyDBURL == "" {
		return nil, eris.New("pipeline: no property database configured (set registry.property_db_url)")
	}
	pool, err := pgxpool.New(ctx, cfg.Registry.PropertyDBURL)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create property db pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "pipeline: ping property db")
	}
	return pool, nil
}
