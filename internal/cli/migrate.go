package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hrportal/internal/store"
)

// MigrateResult lists the migrations a command applied or retracted.
type MigrateResult struct {
	Migrations  []string `json:"migrations"`
	Fingerprint string   `json:"fingerprint"`
}

// DownOptions holds flags for the down command.
type DownOptions struct {
	*RootOptions
	Steps int
}

// NewUpCommand creates the up command.
func NewUpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Provision every pending migration",
		Long: `Provision every declared migration not yet recorded in the ledger,
in declaration order. Each migration runs in its own transaction.

Exit codes:
  0 - Schema up to date
  1 - Provisioning rejected (duplicate entity, missing dependency)
  2 - Command error (configuration, database unreachable)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(rootOpts, cmd)
		},
	}
}

func runUp(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	st, logger, err := openStore(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx := cmd.Context()
	applied, err := st.Up(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeFailed, "provisioning failed", err)
	}
	fingerprint, err := st.Fingerprint(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDatabase, "fingerprint failed", err)
	}

	result := MigrateResult{Migrations: nonNil(applied), Fingerprint: fingerprint}
	if opts.Format == "json" {
		return f.Success(result)
	}
	if len(applied) == 0 {
		return f.Success("Nothing to provision; schema is up to date.")
	}
	return f.Success(fmt.Sprintf("Provisioned %s\nFingerprint: %s", strings.Join(applied, ", "), fingerprint))
}

// NewDownCommand creates the down command.
func NewDownCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DownOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Tear down the most recently applied migrations",
		Long: `Tear down applied migrations in reverse order. Tables are dropped
dependents first; columns added to existing tables are dropped.

Example:
  hrportal down --steps 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Steps < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("--steps must be at least 1, got %d", opts.Steps))
			}
			return runDown(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Steps, "steps", 1, "number of migrations to tear down")

	return cmd
}

func runDown(opts *DownOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	st, logger, err := openStore(opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx := cmd.Context()
	retracted, err := st.Down(ctx, opts.Steps)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeFailed, "teardown failed", err)
	}
	fingerprint, err := st.Fingerprint(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDatabase, "fingerprint failed", err)
	}

	result := MigrateResult{Migrations: nonNil(retracted), Fingerprint: fingerprint}
	if opts.Format == "json" {
		return f.Success(result)
	}
	if len(retracted) == 0 {
		return f.Success("Nothing to tear down.")
	}
	return f.Success("Tore down " + strings.Join(retracted, ", "))
}

// StatusResult is the ledger view of every declared migration.
type StatusResult struct {
	Migrations []store.MigrationStatus `json:"migrations"`
	Drifted    bool                    `json:"drifted"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Long: `Show every declared migration with its ledger entry.

A migration is drifted when the recorded checksum differs from the current
definition, or when the ledger names a migration that is no longer declared.
Drift exits with code 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	st, logger, err := openStore(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	statuses, err := st.Status(cmd.Context())
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDatabase, "failed to read ledger", err)
	}

	result := StatusResult{Migrations: statuses}
	for _, s := range statuses {
		if s.Drifted {
			result.Drifted = true
		}
	}

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, s := range statuses {
			switch {
			case s.Drifted:
				fmt.Fprintf(w, "! %s (drifted)\n", s.Name)
			case s.Applied:
				fmt.Fprintf(w, "✓ %s (applied %s, run %s)\n", s.Name, s.Entry.AppliedAt.Format("2006-01-02 15:04:05"), s.Entry.RunID)
			default:
				fmt.Fprintf(w, "· %s (pending)\n", s.Name)
			}
		}
	}

	if result.Drifted {
		return NewExitError(ExitFailure, "ledger does not match the schema definition")
	}
	return nil
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
