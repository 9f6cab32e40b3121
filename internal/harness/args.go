package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/hrportal/internal/model"
)

// args reads typed step arguments. The first failure is kept in err and
// later reads return zero values, so handlers check err once.
type args struct {
	values   map[string]any
	bindings map[string]int64
	err      error
}

func (a *args) fail(format string, v ...any) {
	if a.err == nil {
		a.err = fmt.Errorf(format, v...)
	}
}

func (a *args) raw(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok && v != nil
}

// str returns a required string argument.
func (a *args) str(key string) string {
	v, ok := a.raw(key)
	if !ok {
		a.fail("missing argument %q", key)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	return s
}

// optStr returns an optional string argument, nil when absent.
func (a *args) optStr(key string) *string {
	if _, ok := a.raw(key); !ok {
		return nil
	}
	s := a.str(key)
	return &s
}

// strOr returns a string argument or def when absent.
func (a *args) strOr(key, def string) string {
	if _, ok := a.raw(key); !ok {
		return def
	}
	return a.str(key)
}

func (a *args) boolean(key string) bool {
	v, ok := a.raw(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		a.fail("argument %q must be a boolean, got %T", key, v)
	}
	return b
}

func (a *args) integer(key string) int {
	v, ok := a.raw(key)
	if !ok {
		return 0
	}
	n, err := toInt64(v, a.bindings)
	if err != nil {
		a.fail("argument %q: %v", key, err)
	}
	return int(n)
}

// id returns a required row id, resolving "$name" references.
func (a *args) id(key string) int64 {
	v, ok := a.raw(key)
	if !ok {
		a.fail("missing argument %q", key)
		return 0
	}
	n, err := toInt64(v, a.bindings)
	if err != nil {
		a.fail("argument %q: %v", key, err)
	}
	return n
}

// optID returns an optional row id, nil when absent or null.
func (a *args) optID(key string) *int64 {
	if _, ok := a.raw(key); !ok {
		return nil
	}
	n := a.id(key)
	return &n
}

func (a *args) salary(key string) *model.Salary {
	v, ok := a.raw(key)
	if !ok {
		return nil
	}
	s, err := model.ParseSalary(fmt.Sprint(v))
	if err != nil {
		a.fail("argument %q: %v", key, err)
		return nil
	}
	return &s
}

func (a *args) payload(key string) model.Payload {
	v, ok := a.raw(key)
	if !ok {
		return nil
	}
	p, err := model.NewPayload(v)
	if err != nil {
		a.fail("argument %q: %v", key, err)
	}
	return p
}

// toInt64 converts a YAML scalar or "$name" reference to an int64.
func toInt64(v any, bindings map[string]int64) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case string:
		if name, ok := strings.CutPrefix(n, "$"); ok {
			id, bound := bindings[name]
			if !bound {
				return 0, fmt.Errorf("unresolved reference %q", n)
			}
			return id, nil
		}
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

// resolve replaces "$name" references in v with their ids.
func resolve(v any, bindings map[string]int64) (any, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return v, nil
	}
	return toInt64(s, bindings)
}
