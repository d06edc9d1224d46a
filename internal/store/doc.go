// Package store persists the tool-call audit log using SQLite.
//
// # Overview
//
// Every dispatched call can be recorded: the tool name, owning pack,
// arguments, start time, duration and, for failures, the error kind and
// message. The log answers "what did the agent run, and what broke" after
// the fact, without scraping stderr.
//
// SQLiteStore implements Store on modernc.org/sqlite (pure Go, no cgo).
// The database runs in WAL mode so the `audit` command can read while a
// server is writing.
//
// # Wiring
//
// Recorder adapts a Store to packs.Observer:
//
//	s, err := store.NewSQLiteStore(cfg.Audit.Path, logger)
//	router := packs.NewRouter(packs.RouterConfig{
//	    Registry: registry,
//	    Observer: store.NewRecorder(s, logger),
//	})
//
// # Queries
//
// ListToolCalls filters by time, tool, pack and failure and returns newest
// first. SummarizeToolCalls aggregates call counts, error counts and average
// duration per tool.
package store
