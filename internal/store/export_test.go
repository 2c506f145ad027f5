package store

import "database/sql"

// SetOpenDB swaps the database opener used by New and returns a restore
// function. This file only compiles during `go test`.
func SetOpenDB(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	prev := openDB
	openDB = fn
	return func() { openDB = prev }
}
