package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed project.cue
var projectCUE string

// Source returns the embedded CUE source of the project schema.
func Source() string {
	return projectCUE
}

// Load compiles and validates the embedded project schema.
func Load() (Definition, error) {
	return Compile("project.cue", projectCUE)
}

// MustLoad is Load for callers that treat a broken embedded schema as a
// programming error.
func MustLoad() Definition {
	def, err := Load()
	if err != nil {
		panic(fmt.Sprintf("schema: embedded definition is invalid: %v", err))
	}
	return def
}

// Compile parses CUE source holding a top-level migrations list, converts it
// to a Definition and validates it.
func Compile(filename, src string) (Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Definition{}, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Definition{}, formatCUEError(err)
	}

	migrationsVal := v.LookupPath(cue.ParsePath("migrations"))
	if !migrationsVal.Exists() {
		return Definition{}, &CompileError{
			Field:   "migrations",
			Message: "migrations list is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := migrationsVal.List()
	if err != nil {
		return Definition{}, formatCUEError(err)
	}

	var def Definition
	for iter.Next() {
		m, err := compileMigration(iter.Value())
		if err != nil {
			return Definition{}, err
		}
		def.Migrations = append(def.Migrations, m)
	}

	if errs := Validate(def); len(errs) > 0 {
		return Definition{}, errs
	}
	return def, nil
}

func compileMigration(v cue.Value) (Migration, error) {
	name, err := lookupString(v, "name")
	if err != nil {
		return Migration{}, err
	}
	m := Migration{Name: name}

	tablesIter, err := v.LookupPath(cue.ParsePath("tables")).List()
	if err != nil {
		return Migration{}, formatCUEError(err)
	}
	for tablesIter.Next() {
		t, err := compileTable(tablesIter.Value())
		if err != nil {
			return Migration{}, err
		}
		m.Tables = append(m.Tables, t)
	}
	return m, nil
}

func compileTable(v cue.Value) (Table, error) {
	name, err := lookupString(v, "name")
	if err != nil {
		return Table{}, err
	}
	t := Table{Name: name, Kind: KindCreate}

	if kindVal := v.LookupPath(cue.ParsePath("kind")); kindVal.Exists() {
		kind, err := kindVal.String()
		if err != nil {
			return Table{}, formatCUEError(err)
		}
		t.Kind = StepKind(kind)
	}

	colIter, err := v.LookupPath(cue.ParsePath("columns")).List()
	if err != nil {
		return Table{}, formatCUEError(err)
	}
	for colIter.Next() {
		c, err := compileColumn(colIter.Value())
		if err != nil {
			return Table{}, err
		}
		t.Columns = append(t.Columns, c)
	}

	if pkVal := v.LookupPath(cue.ParsePath("primary_key")); pkVal.Exists() {
		t.PrimaryKey, err = stringList(pkVal)
		if err != nil {
			return Table{}, err
		}
	}

	t.Timestamps, err = lookupBool(v, "timestamps")
	if err != nil {
		return Table{}, err
	}
	if t.Timestamps {
		t.Columns = append(t.Columns,
			Column{Name: "created_at", Type: TypeTimestamp, Nullable: true},
			Column{Name: "updated_at", Type: TypeTimestamp, Nullable: true},
		)
	}
	return t, nil
}

func compileColumn(v cue.Value) (Column, error) {
	var (
		c   Column
		err error
	)
	if c.Name, err = lookupString(v, "name"); err != nil {
		return Column{}, err
	}
	typeName, err := lookupString(v, "type")
	if err != nil {
		return Column{}, err
	}
	c.Type = ColumnType(typeName)

	if c.Nullable, err = lookupBool(v, "nullable"); err != nil {
		return Column{}, err
	}
	if c.Unique, err = lookupBool(v, "unique"); err != nil {
		return Column{}, err
	}
	if c.Precision, err = lookupInt(v, "precision"); err != nil {
		return Column{}, err
	}
	if c.Scale, err = lookupInt(v, "scale"); err != nil {
		return Column{}, err
	}
	if refVal := v.LookupPath(cue.ParsePath("references")); refVal.Exists() {
		if c.References, err = refVal.String(); err != nil {
			return Column{}, formatCUEError(err)
		}
		c.OnDelete = ActionRestrict
	}
	if actionVal := v.LookupPath(cue.ParsePath("on_delete")); actionVal.Exists() {
		action, err := actionVal.String()
		if err != nil {
			return Column{}, formatCUEError(err)
		}
		c.OnDelete = Action(action)
	}
	if valuesVal := v.LookupPath(cue.ParsePath("values")); valuesVal.Exists() {
		if c.Values, err = stringList(valuesVal); err != nil {
			return Column{}, err
		}
	}
	if defVal := v.LookupPath(cue.ParsePath("default")); defVal.Exists() {
		if c.Default, err = defaultValue(defVal); err != nil {
			return Column{}, err
		}
	}
	return c, nil
}

func defaultValue(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return i, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	default:
		return nil, &CompileError{
			Field:   "default",
			Message: fmt.Sprintf("unsupported default kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func lookupString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func lookupBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func lookupInt(v cue.Value, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, nil
	}
	i, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(i), nil
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
