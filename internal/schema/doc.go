// Package schema declares the relational data model and its
// referential-integrity rules.
//
// The model is authored in project.cue, embedded into the binary and
// compiled into Migration values by Load. A Migration is an ordered set of
// Table steps: a step either creates a table or alters a pre-existing one
// by adding columns.
//
// # Ordering
//
// ProvisionOrder sorts the steps of a migration by dependency depth. A step
// that references nothing has depth 0; any other step sits one level below
// the deepest table it references. Tables that exist before the migration
// count as depth 0. Ties keep declaration order. TeardownOrder is the exact
// reverse, so dependents are always dropped before their dependencies and
// column extensions are retracted before the table they reference.
//
// # Fingerprints
//
// Fingerprint hashes a Catalog (the live structure read back from a
// database) so two provisioning runs can be compared structurally.
package schema
