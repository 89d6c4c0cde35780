package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formulary/internal/history"
	"github.com/mesh-intelligence/formulary/internal/paths"
	"github.com/mesh-intelligence/formulary/internal/seed"
)

func (a *app) newInitCmd() *cobra.Command {
	var (
		starter bool
		user    bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the configuration and reference store",
		Long: "Creates config.yaml if it does not exist, creates the reference and history\n" +
			"tables, and optionally loads the built-in starter lists into an empty store.\n" +
			"With --user the data directory is the per-user default instead of the\n" +
			"current directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if user && a.flags.dataDir == "" {
				dir, err := paths.DefaultDataDir()
				if err != nil {
					return sysError("resolve user data dir: %s", err)
				}
				a.dataDir = dir
			}

			created, err := writeConfigIfMissing(a.configDir, configFile{
				Backend: a.config.GetString(cfgKeyBackend),
				DataDir: a.dataDir,
			})
			if err != nil {
				return sysError("%s", err)
			}
			if created {
				a.logger.Info("wrote config", "dir", a.configDir)
			}

			repo, s, err := a.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			sink, err := history.Open(ctx, a.storeConfig(), a.logger)
			if err != nil {
				return err
			}
			if err := sink.Close(); err != nil {
				return sysError("close history store: %s", err)
			}

			if starter {
				names, err := repo.OrderedCategories(ctx)
				if err != nil {
					return err
				}
				if len(names) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Store is not empty; starter lists skipped")
				} else {
					if err := seed.Apply(ctx, repo, seed.Starter()); err != nil {
						return err
					}
					if _, err := commit(ctx, repo); err != nil {
						return err
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Formulary initialized at %s\n", a.dataDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&starter, "starter", false, "load the built-in starter lists into an empty store")
	cmd.Flags().BoolVar(&user, "user", false, "use the per-user data directory")
	return cmd
}
