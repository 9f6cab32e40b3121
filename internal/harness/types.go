package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Label  string `json:"label"`

	// ID is the id of the row the step created, if any.
	ID int64 `json:"id,omitempty"`

	// Error is the error code of a failed step, or its message when the
	// failure carries no code.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the step returned an error.
func (e TraceEvent) Failed() bool {
	return e.Error != ""
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step behaved as expected and all assertions matched.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Bindings maps step labels to the ids they created.
	Bindings map[string]int64 `json:"bindings,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		Bindings: make(map[string]int64),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// event returns the trace event of the step with the given label.
func (r *Result) event(label string) (TraceEvent, bool) {
	for _, e := range r.Trace {
		if e.Label == label {
			return e, true
		}
	}
	return TraceEvent{}, false
}
