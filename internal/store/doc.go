// Package store executes compiled statements.
//
// Executors own a backend client injected at construction and implement
// dialect.Executor:
//   - SQL runs relational statements over database/sql (sqlite3, pgx and
//     duckdb drivers are linked in)
//   - Document runs document-store statements through a DocumentClient
//   - KeyValue runs native key-value requests through a KeyValueClient
//
// Rows come back as maps keyed by output column name. When a page is
// full the Results carry a continuation cursor for after().
package store
