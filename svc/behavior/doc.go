// Package behavior ingests tracker batches and serves the query API over
// stored behavior records.
//
// Every POST to the collect endpoint becomes one Record, stamped with the
// caller address, user agent and a server side request fingerprint. There is
// no deduplication: a retried beacon produces a second record.
//
// Records live in a Store. Three implementations exist: MemoryStore for
// tests and single process demos, MongoStore and PostgresStore for
// production. All three resolve "first seen" session fields by the earliest
// ingestion time.
//
// The stats endpoint sums event counts over a bounded sample of the most
// recent records in the trailing window, so EventStats is an approximation
// and is reported as such.
package behavior
