package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/hrportal/internal/store"
	"github.com/roach88/hrportal/internal/testutil"
)

// Run executes a scenario on a fresh in-memory database with every
// migration applied, and returns the trace and assertion outcome.
//
// The returned error is reserved for infrastructure failures (opening or
// provisioning the database). Failing steps and assertions are reported in
// Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, slog.New(slog.DiscardHandler))
}

// RunWithLogger is Run with store logging sent to logger.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	s, err := store.Open("sqlite3", ":memory:",
		store.WithLogger(logger),
		store.WithClock(testutil.NewDeterministicClock().Now),
		store.WithRunIDGenerator(testutil.NewSequentialRunIDs("")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	if _, err := s.Up(ctx); err != nil {
		return nil, fmt.Errorf("failed to provision store: %w", err)
	}

	return Execute(ctx, s, scenario), nil
}

// Execute runs the scenario against an already provisioned store.
func Execute(ctx context.Context, s *store.Store, scenario *Scenario) *Result {
	result := NewResult()
	r := &runner{store: s, bindings: result.Bindings}

	for i, step := range scenario.Steps {
		label := step.Label(i)
		event := TraceEvent{Seq: i + 1, Action: step.Do, Label: label}

		id, err := r.execute(ctx, step)
		if err != nil {
			event.Error = errorLabel(err)
		} else if id != 0 {
			event.ID = id
			if step.As != "" {
				r.bindings[step.As] = id
			}
		}
		result.Trace = append(result.Trace, event)
	}

	expected := expectedFailures(scenario.Assertions)
	for _, event := range result.Trace {
		if event.Failed() && !expected[event.Label] {
			result.AddError(fmt.Sprintf("step %q (%s) failed unexpectedly: %s", event.Label, event.Action, event.Error))
		}
	}

	for i, assertion := range scenario.Assertions {
		if err := r.check(ctx, result, assertion); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result
}

func expectedFailures(assertions []Assertion) map[string]bool {
	out := make(map[string]bool)
	for _, a := range assertions {
		if a.Type == AssertError {
			out[a.Step] = true
		}
	}
	return out
}

func errorLabel(err error) string {
	if code := store.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}
