// Package database provides the SQLite catalog store.
//
// It holds the library table (one row per unique audio hash) and the users
// table used for basic authentication. The schema is managed by goose
// migrations embedded from migrations/*.sql and applied on New.
//
// The database uses WAL mode so that stream lookups are not blocked by a
// running index.
package database
