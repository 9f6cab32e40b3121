package harness

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// AssertionError provides detailed information about assertion failures.
type AssertionError struct {
	Type     string
	Target   string
	Expected any
	Actual   any
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s assertion on %s failed:\n  expected: %s\n  actual:   %s",
		e.Type, e.Target, render(e.Expected), render(e.Actual))
}

// check evaluates one assertion against the final state.
func (r *runner) check(ctx context.Context, result *Result, a Assertion) error {
	switch a.Type {
	case AssertCount:
		return r.checkCount(ctx, a)
	case AssertExists, AssertMissing:
		return r.checkPresence(ctx, a)
	case AssertField:
		return r.checkField(ctx, a)
	case AssertError:
		return checkError(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func (r *runner) checkCount(ctx context.Context, a Assertion) error {
	where := make(map[string]any, len(a.Where))
	for column, v := range a.Where {
		resolved, err := resolve(v, r.bindings)
		if err != nil {
			return fmt.Errorf("where %s: %w", column, err)
		}
		where[column] = resolved
	}

	n, err := r.store.Count(ctx, a.Table, where)
	if err != nil {
		return fmt.Errorf("count %s: %w", a.Table, err)
	}
	if n != *a.Count {
		return &AssertionError{Type: a.Type, Target: a.Table, Expected: *a.Count, Actual: n}
	}
	return nil
}

func (r *runner) checkPresence(ctx context.Context, a Assertion) error {
	id, err := toInt64(a.ID, r.bindings)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	found, err := r.store.Exists(ctx, a.Table, id)
	if err != nil {
		return fmt.Errorf("look up %s %d: %w", a.Table, id, err)
	}
	want := a.Type == AssertExists
	if found != want {
		return &AssertionError{Type: a.Type, Target: fmt.Sprintf("%s %d", a.Table, id), Expected: want, Actual: found}
	}
	return nil
}

func (r *runner) checkField(ctx context.Context, a Assertion) error {
	id, err := toInt64(a.ID, r.bindings)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	actual, err := r.store.Lookup(ctx, a.Table, id, a.Column)
	if err != nil {
		return fmt.Errorf("look up %s.%s of %d: %w", a.Table, a.Column, id, err)
	}
	target := fmt.Sprintf("%s.%s of %d", a.Table, a.Column, id)

	if a.IsNull != nil {
		if (actual == nil) != *a.IsNull {
			expected := "null"
			if !*a.IsNull {
				expected = "non-null"
			}
			return &AssertionError{Type: a.Type, Target: target, Expected: expected, Actual: actual}
		}
		return nil
	}

	expected, err := resolve(a.Equals, r.bindings)
	if err != nil {
		return fmt.Errorf("equals: %w", err)
	}
	if render(expected) != render(actual) {
		return &AssertionError{Type: a.Type, Target: target, Expected: expected, Actual: actual}
	}
	return nil
}

func checkError(result *Result, a Assertion) error {
	event, ok := result.event(a.Step)
	if !ok {
		return fmt.Errorf("step %q did not run", a.Step)
	}
	if event.Error != a.Code {
		actual := event.Error
		if actual == "" {
			actual = "success"
		}
		return &AssertionError{Type: a.Type, Target: "step " + a.Step, Expected: a.Code, Actual: actual}
	}
	return nil
}

// render gives the comparable text of a scenario or column value.
func render(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
