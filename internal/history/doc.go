// Package history keeps a local SQLite ledger of finished runs so past
// outputs can be listed with `framescribe history`.
package history
