// Package formulary is the public entry point for embedding the reference
// data repository in another program, such as the form controllers of a
// documentation tool.
//
// Example:
//
//	repo, closeFn, err := formulary.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	})
//	if err != nil {
//	    return err
//	}
//	defer closeFn()
//	names, err := repo.OrderedCategories(ctx)
package formulary

import (
	"context"
	"log/slog"

	"github.com/mesh-intelligence/formulary/internal/history"
	"github.com/mesh-intelligence/formulary/internal/refdata"
	"github.com/mesh-intelligence/formulary/internal/store"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

// Version is the release version of the module and the CLI.
const Version = "0.1.0"

// Open opens the reference store described by cfg and returns an unloaded
// repository together with a function that releases the store.
func Open(ctx context.Context, cfg types.Config, logger *slog.Logger) (types.Repository, func() error, error) {
	s, err := store.Open(ctx, cfg, store.ReferenceSchema)
	if err != nil {
		return nil, nil, err
	}
	return refdata.New(s, refdata.WithLogger(logger)), s.Close, nil
}

// OpenHistory opens the append-only history sink on its own connection.
func OpenHistory(ctx context.Context, cfg types.Config, logger *slog.Logger) (types.HistorySink, func() error, error) {
	sink, err := history.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return sink, sink.Close, nil
}
