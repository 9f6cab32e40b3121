package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"closed", "closed"},
		{true, "true"},
		{3, "3"},
		{int64(42), "42"},
		{uint64(7), "7"},
		{2.5, "2.5"},
		{time.Date(2025, 1, 1, 9, 0, 1, 0, time.UTC), "2025-01-01T09:00:01Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, render(tt.in))
	}
}

func TestToInt64(t *testing.T) {
	bindings := map[string]int64{"admin": 5}

	n, err := toInt64("$admin", bindings)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = toInt64(12, bindings)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	n, err = toInt64("9", bindings)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	_, err = toInt64("$ghost", bindings)
	assert.EqualError(t, err, `unresolved reference "$ghost"`)

	_, err = toInt64(1.5, bindings)
	assert.Error(t, err)

	_, err = toInt64(true, bindings)
	assert.Error(t, err)
}

func TestResolve_LeavesPlainValues(t *testing.T) {
	v, err := resolve("closed", nil)
	require.NoError(t, err)
	assert.Equal(t, "closed", v)

	v, err = resolve(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAssertionError_Message(t *testing.T) {
	err := &AssertionError{Type: AssertCount, Target: "roles", Expected: 1, Actual: 0}
	assert.Equal(t, "count assertion on roles failed:\n  expected: 1\n  actual:   0", err.Error())
}

func TestArgs_FirstErrorWins(t *testing.T) {
	a := &args{values: map[string]any{"flag": "yes"}, bindings: map[string]int64{}}
	_ = a.str("name")
	_ = a.boolean("flag")
	require.Error(t, a.err)
	assert.Equal(t, `missing argument "name"`, a.err.Error())
}
