package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"
)

// Tests use the pure Go driver so they run without cgo.
func testSQLiteConfig(t *testing.T) config.JournalConfig {
	t.Helper()
	return config.JournalConfig{
		Enabled:      true,
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "journal.db"),
		AsyncBuffer:  16,
		WriteTimeout: 5 * time.Second,
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	cfg := testSQLiteConfig(t)
	store, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	record := &Record{
		ID:             "rec-1",
		RequestID:      "req-1",
		CreatedAt:      time.Now().UTC(),
		Model:          "deepseek-r1",
		BackendModel:   "deepseek-r1",
		ConversationID: "conv-1",
		Mode:           "stream",
		Status:         "success",
		DurationMS:     850,
		QuestionChars:  12,
		AnswerChars:    240,
	}

	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("Count() = %d, want 1", count)
	}

	var (
		requestID, model, backendModel, conversationID, mode, status string
		durationMS                                                   int64
		questionChars, answerChars                                   int
	)
	row := store.db.QueryRow(`
		SELECT request_id, model, backend_model, conversation_id, mode, status,
		       duration_ms, question_chars, answer_chars
		FROM journal WHERE id = ?`, "rec-1")
	if err := row.Scan(&requestID, &model, &backendModel, &conversationID, &mode, &status,
		&durationMS, &questionChars, &answerChars); err != nil {
		t.Fatalf("reading row back: %v", err)
	}

	if requestID != "req-1" || model != "deepseek-r1" || backendModel != "deepseek-r1" {
		t.Errorf("identity columns = %q/%q/%q", requestID, model, backendModel)
	}
	if conversationID != "conv-1" || mode != "stream" || status != "success" {
		t.Errorf("state columns = %q/%q/%q", conversationID, mode, status)
	}
	if durationMS != 850 || questionChars != 12 || answerChars != 240 {
		t.Errorf("counters = %d/%d/%d", durationMS, questionChars, answerChars)
	}
}

func TestSQLiteStoreNullableFields(t *testing.T) {
	store, err := NewSQLiteStore(testSQLiteConfig(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	record := &Record{
		ID:        "rec-null",
		RequestID: "req-1",
		CreatedAt: time.Now().UTC(),
		Model:     "deepseek-v3",
		Mode:      "aggregate",
		Status:    "error",
		// ConversationID and ErrorType deliberately empty.
	}

	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	var conversationNull, errorTypeNull bool
	row := store.db.QueryRow(`
		SELECT conversation_id IS NULL, error_type IS NULL
		FROM journal WHERE id = ?`, "rec-null")
	if err := row.Scan(&conversationNull, &errorTypeNull); err != nil {
		t.Fatalf("reading row back: %v", err)
	}

	if !conversationNull {
		t.Error("empty ConversationID stored as non-NULL")
	}
	if !errorTypeNull {
		t.Error("empty ErrorType stored as non-NULL")
	}
}

func TestSQLiteStoreDeleteBefore(t *testing.T) {
	store, err := NewSQLiteStore(testSQLiteConfig(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	ages := map[string]time.Duration{
		"old":    72 * time.Hour,
		"recent": 12 * time.Hour,
		"fresh":  0,
	}
	for id, age := range ages {
		err := store.Store(ctx, &Record{
			ID:        id,
			RequestID: "req-" + id,
			CreatedAt: now.Add(-age),
			Model:     "deepseek-r1",
			Mode:      "stream",
			Status:    "success",
		})
		if err != nil {
			t.Fatalf("Store(%s) error = %v", id, err)
		}
	}

	deleted, err := store.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("remaining count = %d, want 2", count)
	}

	var remains bool
	row := store.db.QueryRow("SELECT COUNT(*) > 0 FROM journal WHERE id = 'old'")
	if err := row.Scan(&remains); err != nil {
		t.Fatalf("checking deleted row: %v", err)
	}
	if remains {
		t.Error("record past the cutoff survived DeleteBefore")
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	cfg := testSQLiteConfig(t)
	ctx := context.Background()

	store, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	err = store.Store(ctx, &Record{
		ID: "rec-1", RequestID: "req-1", CreatedAt: time.Now().UTC(),
		Model: "deepseek-r1", Mode: "stream", Status: "success",
	})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Schema creation is idempotent; existing data survives reopening.
	reopened, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count after reopen = %d, want 1", count)
	}
}

func TestSQLiteStoreCreatesParentDir(t *testing.T) {
	cfg := testSQLiteConfig(t)
	cfg.Path = filepath.Join(t.TempDir(), "nested", "deep", "journal.db")

	store, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(cfg.Path); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestNewSQLiteStoreUnknownDriver(t *testing.T) {
	cfg := testSQLiteConfig(t)
	cfg.Driver = "nosuchdriver"

	_, err := NewSQLiteStore(cfg)
	if err == nil {
		t.Fatal("NewSQLiteStore() succeeded with unknown driver")
	}

	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("error type = %T, want *StorageError", err)
	}
	if storageErr.Driver != "nosuchdriver" {
		t.Errorf("Driver = %q, want %q", storageErr.Driver, "nosuchdriver")
	}
}
