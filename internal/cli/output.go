package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formulary/internal/refdata"
	"github.com/mesh-intelligence/formulary/internal/store"
)

// openRepository opens the reference store and returns an unloaded
// repository over it. The caller closes the store.
func (a *app) openRepository(ctx context.Context, opts ...refdata.Option) (*refdata.Repository, *store.Store, error) {
	s, err := store.Open(ctx, a.storeConfig(), store.ReferenceSchema)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]refdata.Option{refdata.WithLogger(a.logger)}, opts...)
	return refdata.New(s, opts...), s, nil
}

// commit writes pending changes and reports whether anything changed.
func commit(ctx context.Context, repo *refdata.Repository) (bool, error) {
	if !repo.HasPendingChanges() {
		return false, nil
	}
	if err := repo.CommitPending(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %s", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
