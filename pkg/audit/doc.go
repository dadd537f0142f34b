// Package audit defines the extraction session audit trail: record and
// query types, the storage interface, and the error taxonomy shared by
// the recorder, storage, retention, and export subpackages.
//
// # Overview
//
// Every extraction session produces exactly one audit record describing
// who asked, how large the transcript was, how far compaction reduced
// it, and how the session ended. Transcript content is never persisted;
// records carry a SHA-256 fingerprint instead, so the trail can prove
// what was processed without retaining meeting content.
//
// Records are written asynchronously by the recorder subpackage, stored
// by a storage backend, aged out by the retention subpackage, and read
// back through Query or the export subpackage.
package audit
