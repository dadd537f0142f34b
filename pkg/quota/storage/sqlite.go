package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite, keeping the usage ledger
// across restarts. Suitable for single-instance deployments.
//
// The database runs in WAL mode with periodic passive checkpoints to
// balance write performance with durability.
type SQLiteStore struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	closeOnce          sync.Once

	recordStmt *sql.Stmt
	usageStmt  *sql.Stmt
	listStmt   *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite usage ledger.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite usage ledger with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a SQLite usage ledger with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quota_usage (
		identity TEXT PRIMARY KEY,
		admitted INTEGER NOT NULL DEFAULT 0,
		rejected INTEGER NOT NULL DEFAULT 0,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quota_usage_last_seen ON quota_usage(last_seen);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.recordStmt, err = s.db.Prepare(`
		INSERT INTO quota_usage (identity, admitted, rejected, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (identity) DO UPDATE SET
			admitted = admitted + excluded.admitted,
			rejected = rejected + excluded.rejected,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record statement: %w", err)
	}

	s.usageStmt, err = s.db.Prepare(`
		SELECT identity, admitted, rejected, first_seen, last_seen
		FROM quota_usage
		WHERE identity = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare usage statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT identity, admitted, rejected, first_seen, last_seen
		FROM quota_usage
		ORDER BY identity
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// RecordDecision adds one admitted or rejected count for an identity.
func (s *SQLiteStore) RecordDecision(ctx context.Context, identity string, allowed bool) error {
	if identity == "" {
		return fmt.Errorf("identity cannot be empty")
	}

	admitted, rejected := 0, 0
	if allowed {
		admitted = 1
	} else {
		rejected = 1
	}

	now := time.Now().Unix()
	_, err := s.recordStmt.ExecContext(ctx, identity, admitted, rejected, now, now)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	return nil
}

// Usage returns the accumulated counts for an identity, or nil if the
// identity was never recorded.
func (s *SQLiteStore) Usage(ctx context.Context, identity string) (*IdentityUsage, error) {
	if identity == "" {
		return nil, fmt.Errorf("identity cannot be empty")
	}

	var (
		u         IdentityUsage
		firstSeen int64
		lastSeen  int64
	)

	err := s.usageStmt.QueryRowContext(ctx, identity).Scan(
		&u.Identity,
		&u.Admitted,
		&u.Rejected,
		&firstSeen,
		&lastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	u.FirstSeen = time.Unix(firstSeen, 0)
	u.LastSeen = time.Unix(lastSeen, 0)
	return &u, nil
}

// List returns the accumulated counts for all recorded identities.
func (s *SQLiteStore) List(ctx context.Context) ([]*IdentityUsage, error) {
	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	defer rows.Close()

	var out []*IdentityUsage
	for rows.Next() {
		var (
			u         IdentityUsage
			firstSeen int64
			lastSeen  int64
		)
		if err := rows.Scan(&u.Identity, &u.Admitted, &u.Rejected, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		u.FirstSeen = time.Unix(firstSeen, 0)
		u.LastSeen = time.Unix(lastSeen, 0)
		out = append(out, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// Close releases any resources held by the store.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.recordStmt != nil {
			s.recordStmt.Close()
		}
		if s.usageStmt != nil {
			s.usageStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
