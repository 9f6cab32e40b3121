package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/hrportal/internal/config"
	"github.com/roach88/hrportal/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// EnvFile is loaded before reading HRPORTAL_* variables.
	EnvFile string

	// Driver and DSN override the configured database when set.
	Driver string
	DSN    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hrportal CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hrportal",
		Short: "HR portal schema store",
		Long:  "Provision, inspect and tear down the HR portal schema: roles and permissions, surveys, vacancies and applications.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "dotenv file with HRPORTAL_* settings")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|sqlite|postgres), overrides HRPORTAL_DB_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database DSN, overrides HRPORTAL_DB_DSN")

	// Add subcommands
	cmd.AddCommand(NewUpCommand(opts))
	cmd.AddCommand(NewDownCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewDDLCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter builds the output formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Driver != "" {
		cfg.DBDriver = opts.Driver
	}
	if opts.DSN != "" {
		cfg.DBDSN = opts.DSN
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger returns a text logger on the command's stderr. --verbose forces
// debug level; otherwise the configured level applies.
func newLogger(opts *RootOptions, cfg config.Config, cmd *cobra.Command) *slog.Logger {
	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openStore loads the configuration and opens the configured database.
// The caller closes the store.
func openStore(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*store.Store, *slog.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	logger := newLogger(opts, cfg, cmd)

	logger.Debug("opening database", "driver", cfg.DBDriver)
	st, err := store.Open(cfg.DBDriver, cfg.DBDSN, store.WithLogger(logger))
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	return st, logger, nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}
