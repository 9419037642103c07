// Package records is the data access layer for patients and their medical
// records.
//
// A Service owns one embedded SQLite store. The store is opened lazily by
// Initialize, which every operation calls first; concurrent first calls share
// a single in-flight initialization. All database work then runs on a
// dedicated worker goroutine (see package worker), so callers suspend until
// their result is ready and never touch the store directly.
//
// Failures are reported as *Error values carrying a Code:
//
//	INITIALIZATION        the store could not be opened or migrated
//	DUPLICATE_CONSTRAINT  phone or email already registered (Field names which)
//	PERSISTENCE           any other write failure
//	REFERENCE             the referenced patient does not exist
//	VALIDATION            input rejected before reaching the store
//	QUERY                 raw query failure (only inside a QueryResult)
//
// Raw driver errors never escape; they are classified here and logged with
// their detail.
package records
