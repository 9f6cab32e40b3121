package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot_OmitsEmptyFields(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace,
		TraceEvent{Seq: 1, Action: "grant", Label: "step[0]"},
		TraceEvent{Seq: 2, Action: "delete", Label: "gone", Error: "NOT_FOUND"},
	)

	data, err := MarshalSnapshot("sample", result)
	require.NoError(t, err)

	want := `{
  "scenario_name": "sample",
  "pass": true,
  "trace": [
    {
      "seq": 1,
      "action": "grant",
      "label": "step[0]"
    },
    {
      "seq": 2,
      "action": "delete",
      "label": "gone",
      "error": "NOT_FOUND"
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}
