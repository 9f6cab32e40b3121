// Package harness runs integrity scenarios against a freshly provisioned
// store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - do: create_role
//	    as: admin
//	    args: { name: admin }
//	  - do: delete
//	    args: { table: roles, id: $admin }
//	assertions:
//	  - type: missing
//	    table: roles
//	    id: $admin
//
// A step's "as" binds the id it creates to a name; "$name" in later args and
// assertions resolves to that id.
//
// # Step Types
//
//   - create_role, create_permission, grant, revoke
//   - create_user, assign_role, create_module
//   - create_survey, publish_survey, close_survey
//   - add_question, start_response, complete_response, record_answer
//   - create_vacancy, publish_vacancy, close_vacancy
//   - apply, review_application
//   - delete
//
// # Assertion Types
//
//   - count: Counts rows of a table matching "where"
//   - exists: Verifies the row id exists
//   - missing: Verifies the row id does not exist
//   - field: Compares one column of a row ("equals", "is_null")
//   - error: Verifies a step failed with the given error code
//
// A failing step is only acceptable when an error assertion names it.
//
// # Deterministic Testing
//
// Each scenario runs on its own in-memory SQLite database with a
// deterministic clock and run ids, so ids and traces are identical across
// runs and can be compared against golden files.
package harness
