package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Salary precision mirrors the NUMERIC(10, 2) columns of the vacancies table.
const (
	SalaryPrecision = 10
	SalaryScale     = 2
)

var salaryContext = apd.BaseContext.WithPrecision(SalaryPrecision)

// Salary is a non-negative fixed-point amount with two decimals.
type Salary struct {
	d apd.Decimal
}

// ParseSalary parses a decimal string such as "4500" or "4500.50".
// More than two decimals or more than ten digits in total is an error.
func ParseSalary(s string) (Salary, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Salary{}, fmt.Errorf("parse salary %q: %w", s, err)
	}
	return newSalary(d)
}

// MustSalary is ParseSalary for literals known to be valid.
func MustSalary(s string) Salary {
	v, err := ParseSalary(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newSalary(d *apd.Decimal) (Salary, error) {
	if d.Negative && !d.IsZero() {
		return Salary{}, fmt.Errorf("salary %s must not be negative", d.String())
	}
	var out Salary
	cond, err := salaryContext.Quantize(&out.d, d, -SalaryScale)
	if err != nil {
		return Salary{}, fmt.Errorf("salary %s exceeds %d digits: %w", d.String(), SalaryPrecision, err)
	}
	if cond.Inexact() {
		return Salary{}, fmt.Errorf("salary %s has more than %d decimals", d.String(), SalaryScale)
	}
	out.d.Negative = false
	return out, nil
}

// String renders the salary with exactly two decimals.
func (s Salary) String() string {
	return s.d.Text('f')
}

// Cmp compares s and other, returning -1, 0 or +1.
func (s Salary) Cmp(other Salary) int {
	return s.d.Cmp(&other.d)
}

// Value implements driver.Valuer. Salaries are written as decimal text so no
// binary floating point is involved on the way in.
func (s Salary) Value() (driver.Value, error) {
	return s.String(), nil
}

// Scan implements sql.Scanner. SQLite may hand back an int64 or float64 for a
// NUMERIC column, PostgreSQL returns the decimal text.
func (s *Salary) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		return fmt.Errorf("scan salary: NULL into non-nullable value")
	case int64:
		text = strconv.FormatInt(v, 10)
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		text = string(v)
	case string:
		text = v
	default:
		return fmt.Errorf("scan salary: unsupported type %T", src)
	}
	parsed, err := ParseSalary(text)
	if err != nil {
		return fmt.Errorf("scan salary: %w", err)
	}
	*s = parsed
	return nil
}

// MarshalJSON renders the salary as a JSON string to keep both decimals.
func (s Salary) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a JSON string or number.
func (s *Salary) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("salary must be a string or number: %w", err)
		}
		text = n.String()
	}
	parsed, err := ParseSalary(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// NullSalary scans a nullable salary column.
type NullSalary struct {
	Salary Salary
	Valid  bool
}

// Scan implements sql.Scanner.
func (n *NullSalary) Scan(src any) error {
	if src == nil {
		n.Salary, n.Valid = Salary{}, false
		return nil
	}
	n.Valid = true
	return n.Salary.Scan(src)
}

// Ptr returns nil for NULL and a pointer to the salary otherwise.
func (n NullSalary) Ptr() *Salary {
	if !n.Valid {
		return nil
	}
	s := n.Salary
	return &s
}

// SalaryArg converts an optional salary into a query argument.
func SalaryArg(s *Salary) any {
	if s == nil {
		return nil
	}
	return s.String()
}
