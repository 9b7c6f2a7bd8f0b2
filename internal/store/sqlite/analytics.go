package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/presence-chat/internal/store"
)

const trackedColumns = `id, kind, source, url, label, visitor, meta, created_at`

// ==== AnalyticsStore implementation ====

// ListTracked returns every record of the given kind ordered by id.
func (s *SQLiteStore) ListTracked(ctx context.Context, kind store.TrackedKind) ([]store.Tracked, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trackedColumns+` FROM analytics_events WHERE kind = ? ORDER BY id`, kind)
	if err != nil {
		return nil, fmt.Errorf("query %s records: %w", kind, err)
	}
	defer rows.Close()

	return scanTracked(rows)
}

// GetTracked retrieves one record; an id of another kind is not found.
func (s *SQLiteStore) GetTracked(ctx context.Context, kind store.TrackedKind, id int64) (*store.Tracked, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+trackedColumns+` FROM analytics_events WHERE kind = ? AND id = ?`, kind, id)

	t, err := scanTrackedRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", kind, id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	return t, nil
}

// CreateTracked inserts a record.
func (s *SQLiteStore) CreateTracked(ctx context.Context, kind store.TrackedKind, in store.TrackedInput) (*store.Tracked, error) {
	meta, err := encodeMeta(in.Meta)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics_events (kind, source, url, label, visitor, meta, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		kind, in.Source, in.URL, in.Label, in.Visitor, meta, createdAt(in.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", kind, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetTracked(ctx, kind, id)
}

// UpdateTracked replaces every field of a record.
func (s *SQLiteStore) UpdateTracked(ctx context.Context, kind store.TrackedKind, id int64, in store.TrackedInput) (*store.Tracked, error) {
	meta, err := encodeMeta(in.Meta)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE analytics_events SET source = ?, url = ?, label = ?, visitor = ?, meta = ?, created_at = ? WHERE kind = ? AND id = ?`,
		in.Source, in.URL, in.Label, in.Visitor, meta, createdAt(in.CreatedAt), kind, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	if err := expectAffected(result, string(kind), id); err != nil {
		return nil, err
	}
	return s.GetTracked(ctx, kind, id)
}

// DeleteTracked removes a record.
func (s *SQLiteStore) DeleteTracked(ctx context.Context, kind store.TrackedKind, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM analytics_events WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return expectAffected(result, string(kind), id)
}

// GoalDetails loads a goal with the views and actions of its visitor.
func (s *SQLiteStore) GoalDetails(ctx context.Context, goalID int64) (*store.GoalDetails, error) {
	goal, err := s.GetTracked(ctx, store.KindGoal, goalID)
	if err != nil {
		return nil, err
	}

	views, err := s.trackedByVisitor(ctx, store.KindView, goal.Visitor)
	if err != nil {
		return nil, err
	}
	actions, err := s.trackedByVisitor(ctx, store.KindAction, goal.Visitor)
	if err != nil {
		return nil, err
	}

	return &store.GoalDetails{Goal: *goal, Views: views, Actions: actions}, nil
}

func (s *SQLiteStore) trackedByVisitor(ctx context.Context, kind store.TrackedKind, visitor string) ([]store.Tracked, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trackedColumns+` FROM analytics_events WHERE kind = ? AND visitor = ? ORDER BY id`, kind, visitor)
	if err != nil {
		return nil, fmt.Errorf("query %s records for visitor: %w", kind, err)
	}
	defer rows.Close()

	return scanTracked(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrackedRow(row rowScanner) (*store.Tracked, error) {
	var (
		t    store.Tracked
		kind string
		meta string
	)
	if err := row.Scan(&t.ID, &kind, &t.Source, &t.URL, &t.Label, &t.Visitor, &meta, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Kind = store.TrackedKind(kind)

	t.Meta = map[string]any{}
	if err := json.Unmarshal([]byte(meta), &t.Meta); err != nil {
		return nil, fmt.Errorf("decode meta of %s %d: %w", kind, t.ID, err)
	}
	return &t, nil
}

func scanTracked(rows *sql.Rows) ([]store.Tracked, error) {
	records := make([]store.Tracked, 0)
	for rows.Next() {
		t, err := scanTrackedRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func encodeMeta(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	return string(raw), nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
