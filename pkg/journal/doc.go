// Package journal records completed chat completion requests to SQLite.
//
// Each request produces one Record with its model, mode, outcome,
// duration, and size counters. The Recorder queues records on a
// buffered channel and a background worker persists them, so request
// handling never waits on the database; when the queue is full the
// record is dropped and counted instead.
//
// Two SQLite drivers are supported and selected by config: "sqlite"
// (modernc.org/sqlite, pure Go) and "sqlite3" (mattn/go-sqlite3, cgo).
// The Pruner deletes records past the retention period on a cron
// schedule.
package journal
