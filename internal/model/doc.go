// Package model provides the entity types stored by the schema store.
//
// This package contains value types only. It imports nothing internal, so
// the schema, store and harness packages can all depend on it.
//
// Key constraints:
//   - Status and type fields are closed enumerations; Valid reports membership
//   - Optional columns are pointers; nil means NULL
//   - Salary values are fixed-point with two decimals, never floats
//   - JSON payloads are stored in canonical form (sorted keys, NFC strings)
//   - All JSON tags use snake_case
package model
