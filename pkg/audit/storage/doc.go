// Package storage provides audit storage backends.
//
// SQLiteStorage is the production backend, a single WAL-mode database
// file holding one row per extraction session. MemoryStorage backs
// tests and database-less deployments; its contents do not survive a
// restart.
package storage
