package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hrportal/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                     `json:"valid"`
	Migrations int                      `json:"migrations,omitempty"`
	Tables     int                      `json:"tables,omitempty"`
	Errors     []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema.cue]",
		Short: "Validate a schema definition",
		Long: `Compile a CUE schema definition and check it against the schema rules:
unique tables, keys, foreign key targets, enum defaults, set-null on
nullable columns and acyclic migration steps.

Without an argument the built-in schema is validated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	def, err := loadDefinition(path)
	if err != nil {
		var verrs schema.ValidationErrors
		if errors.As(err, &verrs) {
			return outputValidationErrors(f, verrs)
		}
		var cerr *schema.CompileError
		if errors.As(err, &cerr) {
			return f.Fail(ExitFailure, "E_COMPILE", "schema does not compile", err)
		}
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to load schema", err)
	}

	f.VerboseLog("Compiled %d migration(s)", len(def.Migrations))
	result := ValidationResult{Valid: true, Migrations: len(def.Migrations), Tables: len(def.Tables())}
	if opts.Format == "json" {
		return f.Success(result)
	}
	return f.Success(fmt.Sprintf("✓ Schema valid (%d migrations, %d tables)", result.Migrations, result.Tables))
}

func outputValidationErrors(f *OutputFormatter, errs schema.ValidationErrors) error {
	if f.Format == "json" {
		if err := f.Error("E_VALIDATION", fmt.Sprintf("%d validation error(s)", len(errs)),
			ValidationResult{Valid: false, Errors: errs}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "✗ Schema invalid (%d error(s))\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(f.Writer, "  %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)))
}
