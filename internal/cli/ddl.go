package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hrportal/internal/dialect"
	"github.com/roach88/hrportal/internal/schema"
)

// DDLOptions holds flags for the ddl command.
type DDLOptions struct {
	*RootOptions
	Dialect   string
	Migration string
	Down      bool
	Schema    string
}

// DDLScript is the rendered script of one migration.
type DDLScript struct {
	Migration string   `json:"migration"`
	Direction string   `json:"direction"`
	Dialect   string   `json:"dialect"`
	Steps     []string `json:"statements"`
}

// NewDDLCommand creates the ddl command.
func NewDDLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DDLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print the provisioning or teardown SQL",
		Long: `Render the SQL that provisions (or, with --down, tears down) each
migration, without connecting to a database.

Examples:
  hrportal ddl
  hrportal ddl --dialect postgres --migration 0002_create_project_tables
  hrportal ddl --down --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlite", "SQL dialect (sqlite|postgres)")
	cmd.Flags().StringVar(&opts.Migration, "migration", "", "render only this migration")
	cmd.Flags().BoolVar(&opts.Down, "down", false, "render teardown instead of provisioning")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file (defaults to the built-in schema)")

	return cmd
}

func runDDL(opts *DDLOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	d, err := dialect.ForName(opts.Dialect)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "invalid dialect", err)
	}
	def, err := loadDefinition(opts.Schema)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to load schema", err)
	}

	migrations := def.Migrations
	if opts.Migration != "" {
		m, ok := def.Migration(opts.Migration)
		if !ok {
			return f.Fail(ExitCommandError, ErrCodeInput, "unknown migration", fmt.Errorf("%q is not declared", opts.Migration))
		}
		migrations = []schema.Migration{m}
	}

	direction := "up"
	if opts.Down {
		direction = "down"
		// Teardown runs newest first.
		reversed := make([]schema.Migration, len(migrations))
		for i, m := range migrations {
			reversed[len(migrations)-1-i] = m
		}
		migrations = reversed
	}

	scripts := make([]DDLScript, 0, len(migrations))
	for _, m := range migrations {
		var stmts []string
		if opts.Down {
			stmts, err = dialect.TeardownStatements(d, m)
		} else {
			stmts, err = dialect.ProvisionStatements(d, m)
		}
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeFailed, "failed to render "+m.Name, err)
		}
		scripts = append(scripts, DDLScript{Migration: m.Name, Direction: direction, Dialect: d.Name(), Steps: stmts})
	}

	if opts.Format == "json" {
		return f.Success(scripts)
	}

	var b strings.Builder
	for i, s := range scripts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "-- %s (%s, %s)\n", s.Migration, s.Direction, s.Dialect)
		b.WriteString(dialect.Script(s.Steps))
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
	return err
}

// loadDefinition compiles the CUE schema at path, or the embedded schema
// when path is empty.
func loadDefinition(path string) (schema.Definition, error) {
	if path == "" {
		return schema.Load()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return schema.Definition{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	return schema.Compile(filepath.Base(path), string(src))
}
