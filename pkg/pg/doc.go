// Package pg opens a pgx connection pool with retries, applies goose
// migrations from an embedded filesystem and classifies common PostgreSQL
// errors.
package pg
