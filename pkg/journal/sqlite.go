package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/ganymede/pkg/config"
)

// SchemaVersion is the current journal database schema version.
const SchemaVersion = 1

// schema creates the journal table. created_at holds Unix milliseconds
// so retention cutoffs compare as integers regardless of driver.
const schema = `
CREATE TABLE IF NOT EXISTS journal (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,

    model TEXT NOT NULL,
    backend_model TEXT NOT NULL,
    conversation_id TEXT,

    mode TEXT NOT NULL,
    status TEXT NOT NULL,
    error_type TEXT,

    duration_ms INTEGER NOT NULL,
    question_chars INTEGER NOT NULL,
    answer_chars INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_created_at ON journal(created_at);
CREATE INDEX IF NOT EXISTS idx_journal_model ON journal(model);
CREATE INDEX IF NOT EXISTS idx_journal_status ON journal(status);
CREATE INDEX IF NOT EXISTS idx_journal_request_id ON journal(request_id);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// SQLiteStore implements Storage on a SQLite database file. The driver
// name comes straight from config: "sqlite" selects the pure Go driver,
// "sqlite3" the cgo one. Both register under exactly those names.
type SQLiteStore struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the journal database and
// initializes its schema. The parent directory is created when missing.
func NewSQLiteStore(cfg config.JournalConfig) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "journal.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError(cfg.Driver, "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, NewStorageError(cfg.Driver, "open", err)
	}

	// One writer plus the retention pruner; SQLite gains nothing from a
	// larger pool.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	s := &SQLiteStore{
		db:     db,
		driver: cfg.Driver,
		logger: logger,
	}

	if err := s.initialize(cfg.WriteTimeout); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("journal storage initialized",
		"driver", cfg.Driver,
		"path", cfg.Path,
	)

	return s, nil
}

// initialize enables WAL, sets the busy timeout, and creates the schema.
func (s *SQLiteStore) initialize(busyTimeout time.Duration) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return NewStorageError(s.driver, "enable_wal", err)
	}

	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return NewStorageError(s.driver, "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(schema); err != nil {
		return NewStorageError(s.driver, "create_schema", err)
	}

	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError(s.driver, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(getSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return NewStorageError(s.driver, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(s.driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists one journal record.
func (s *SQLiteStore) Store(ctx context.Context, record *Record) error {
	const query = `
		INSERT INTO journal (
			id, request_id, created_at,
			model, backend_model, conversation_id,
			mode, status, error_type,
			duration_ms, question_chars, answer_chars
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// Optional strings become NULL so status queries can test IS NULL.
	var conversationID, errorType any
	if record.ConversationID != "" {
		conversationID = record.ConversationID
	}
	if record.ErrorType != "" {
		errorType = record.ErrorType
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.RequestID, record.CreatedAt.UnixMilli(),
		record.Model, record.BackendModel, conversationID,
		record.Mode, record.Status, errorType,
		record.DurationMS, record.QuestionChars, record.AnswerChars,
	)
	if err != nil {
		return NewStorageError(s.driver, "store", err)
	}

	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM journal").Scan(&count)
	if err != nil {
		return 0, NewStorageError(s.driver, "count", err)
	}
	return count, nil
}

// DeleteBefore removes records created before cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM journal WHERE created_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, NewStorageError(s.driver, "delete", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.driver, "delete", err)
	}

	return deleted, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError(s.driver, "close", err)
	}
	return nil
}
