// Package cli implements the formulary command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/formulary/internal/logging"
	"github.com/mesh-intelligence/formulary/internal/paths"
	"github.com/mesh-intelligence/formulary/pkg/formulary"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for an error returned by a
// subcommand.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// exitCode maps an error from Execute to a process exit code. Store
// failures are system errors; everything else is a user error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrStoreUnavailable) || errors.Is(err, types.ErrLoadFailed) || errors.Is(err, types.ErrCommitFailed) {
		return exitSysError
	}
	return exitUserError
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by one invocation of the root command.
type app struct {
	flags  rootFlags
	config *viper.Viper
	logger *slog.Logger

	configDir string
	dataDir   string
}

// NewRootCmd creates the top-level "formulary" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: logging.Nop()}

	root := &cobra.Command{
		Use:   "formulary",
		Short: "Clinician-curated reference lists for clinical documentation",
		Long: "Formulary manages the category, group, and item lists used to assemble\n" +
			"allergy, vaccination, and treatment-plan text, plus the plan history.",
		Version:           formulary.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.formulary-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newCategoriesCmd(),
		a.newShowCmd(),
		a.newAddCmd(),
		a.newRemoveCmd(),
		a.newImportCmd(),
		a.newExportCmd(),
		a.newSearchCmd(),
		a.newHistoryCmd(),
		a.newWatchCmd(),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

// setup resolves directories, loads config.yaml, and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %s", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError("%s", err)
	}
	a.configDir = configDir
	a.config = cfg

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return sysError("resolve data dir: %s", err)
	}
	a.dataDir = dataDir

	level, err := logging.ParseLevel(cfg.GetString(cfgKeyLogLevel))
	if err != nil {
		return userError("config: %s", err)
	}
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = logging.New(logging.Config{
		Out:   cmd.ErrOrStderr(),
		Level: level,
		JSON:  cfg.GetString(cfgKeyLogFormat) == "json",
	})
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

// storeConfig returns the store configuration for this invocation.
func (a *app) storeConfig() types.Config {
	return types.Config{
		Backend: a.config.GetString(cfgKeyBackend),
		DataDir: a.dataDir,
		DSN:     a.config.GetString(cfgKeyDSN),
	}
}
