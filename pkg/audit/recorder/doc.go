// Package recorder writes audit records asynchronously.
//
// The recorder buffers records on a channel drained by a background
// worker, so session handling never waits on the audit store. When the
// buffer is full the record is dropped with an error log rather than
// stalling a live stream. Close drains the buffer before returning.
package recorder
