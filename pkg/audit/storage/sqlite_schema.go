package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
const Schema = `
-- Extraction session audit records
CREATE TABLE IF NOT EXISTS extractions (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    -- Caller
    identity TEXT NOT NULL,
    transport TEXT NOT NULL,

    -- Input
    model TEXT,
    source_chars INTEGER NOT NULL,
    compacted_chars INTEGER NOT NULL,
    was_compacted BOOLEAN NOT NULL,
    transcript_hash TEXT,

    -- Output
    section_count INTEGER,
    title TEXT,

    -- Outcome
    outcome TEXT NOT NULL,
    error_detail TEXT,

    -- Timing
    started_at TIMESTAMP NOT NULL,
    recorded_at TIMESTAMP NOT NULL,
    duration_ms INTEGER
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_extractions_started_at ON extractions(started_at);
CREATE INDEX IF NOT EXISTS idx_extractions_identity ON extractions(identity);
CREATE INDEX IF NOT EXISTS idx_extractions_outcome ON extractions(outcome);
CREATE INDEX IF NOT EXISTS idx_extractions_request_id ON extractions(request_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
