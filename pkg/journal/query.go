package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Query filters journal records. Zero-value fields match everything.
type Query struct {
	// Since and Until bound CreatedAt, both inclusive.
	Since *time.Time
	Until *time.Time

	// Model filters on the client-requested model name.
	Model string

	// Status filters on one of the Status* values.
	Status string

	// Mode filters on ModeStream or ModeAggregate.
	Mode string

	// Limit caps the result size. Zero means defaultQueryLimit.
	Limit int

	// Offset skips that many records for pagination.
	Offset int
}

const defaultQueryLimit = 100

// Query returns matching records, newest first.
func (s *SQLiteStore) Query(ctx context.Context, q *Query) ([]*Record, error) {
	if q == nil {
		q = &Query{}
	}

	where, args := buildWhereClause(q)
	stmt := `
		SELECT id, request_id, created_at,
		       model, backend_model, conversation_id,
		       mode, status, error_type,
		       duration_ms, question_chars, answer_chars
		FROM journal`
	if where != "" {
		stmt += " WHERE " + where
	}
	stmt += " ORDER BY created_at DESC"

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	stmt += fmt.Sprintf(" LIMIT %d", limit)
	if q.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewStorageError(s.driver, "query", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError(s.driver, "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.driver, "query", err)
	}

	return records, nil
}

func buildWhereClause(q *Query) (string, []any) {
	var conditions []string
	var args []any

	if q.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, q.Since.UnixMilli())
	}
	if q.Until != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, q.Until.UnixMilli())
	}
	if q.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, q.Model)
	}
	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, q.Status)
	}
	if q.Mode != "" {
		conditions = append(conditions, "mode = ?")
		args = append(args, q.Mode)
	}

	return strings.Join(conditions, " AND "), args
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		record         Record
		createdAt      int64
		conversationID sql.NullString
		errorType      sql.NullString
	)
	if err := rows.Scan(
		&record.ID, &record.RequestID, &createdAt,
		&record.Model, &record.BackendModel, &conversationID,
		&record.Mode, &record.Status, &errorType,
		&record.DurationMS, &record.QuestionChars, &record.AnswerChars,
	); err != nil {
		return nil, err
	}
	record.CreatedAt = time.UnixMilli(createdAt).UTC()
	record.ConversationID = conversationID.String
	record.ErrorType = errorType.String
	return &record, nil
}

// Query returns matching records, newest first.
func (s *MemoryStore) Query(ctx context.Context, q *Query) ([]*Record, error) {
	if q == nil {
		q = &Query{}
	}

	s.mu.RLock()
	matched := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		if q.matches(record) {
			recordCopy := *record
			matched = append(matched, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []*Record{}, nil
		}
		matched = matched[q.Offset:]
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func (q *Query) matches(record *Record) bool {
	if q.Since != nil && record.CreatedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && record.CreatedAt.After(*q.Until) {
		return false
	}
	if q.Model != "" && record.Model != q.Model {
		return false
	}
	if q.Status != "" && record.Status != q.Status {
		return false
	}
	if q.Mode != "" && record.Mode != q.Mode {
		return false
	}
	return true
}
