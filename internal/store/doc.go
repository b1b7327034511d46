// Package store records machine runs in SQLite.
//
// A run row is created before execution starts and finished once the run
// stops; every committed transition in between becomes a steps row keyed by
// (run_id, seq). Store implements engine.Recorder, so it can be passed to
// engine.WithRecorder directly.
//
// The store is a trace log for non-interactive runs. It does not save or
// resume debugger sessions.
package store
