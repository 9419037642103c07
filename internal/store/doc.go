// Package store provides SQLite-backed durable storage for patient records.
//
// The store owns two tables:
//   - patients: one row per registered patient, phone and email unique
//   - medical_records: zero or more rows per patient, removed with the
//     patient (ON DELETE CASCADE)
//
// # Ordering
//
// Every list query carries an id tiebreaker so that rows created within the
// same millisecond still come back in a stable order:
//   - ListPatients: created_at DESC, id DESC
//   - SearchPatientsByName: last_name, first_name, id ASC
//   - ListMedicalRecords: created_at DESC, id DESC
//
// # Name matching
//
// SQLite's LIKE folds ASCII only. The store registers a casefold() SQL
// function (golang.org/x/text/cases) on every connection and searches with
// casefold(column) LIKE casefold(pattern), which matches names case-insensitively
// across scripts.
//
// # Raw queries
//
// Query runs arbitrary SQL. QueryReadOnly runs a single statement on a
// connection with PRAGMA query_only enabled, so writes fail inside the engine
// instead of relying on string inspection. Both accept $N placeholders, which
// are rewritten to SQLite's ?N form.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: Wait for locks (default 5 seconds)
//   - foreign_keys=ON: Required for the medical_records cascade
package store
