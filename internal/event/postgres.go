package event

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const eventColumns = `id, title, description, start_at, end_at, event_type, created_by, created_at`

func (s *PGStore) Create(ctx context.Context, e *Event) error {
	_, err := s.db.ExecContext(ctx,
		`insert into events(id, title, description, start_at, end_at, event_type, created_by, created_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Title, e.Description, e.Start, e.End, e.Type, e.CreatedBy, e.CreatedAt,
	)
	return err
}

// List builds the where clause from the filter's non-zero fields.
func (s *PGStore) List(ctx context.Context, f Filter) ([]Event, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("event_type=$%d", string(f.Type))
	}
	if !f.From.IsZero() {
		add("start_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("start_at <= $%d", f.To)
	}
	if f.CreatedBy != "" {
		add("created_by=$%d", f.CreatedBy)
	}

	query := `select ` + eventColumns + ` from events`
	if len(conds) > 0 {
		query += ` where ` + strings.Join(conds, " and ")
	}
	query += ` order by start_at asc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PGStore) Preview(ctx context.Context, typ Type, limit, offset int) ([]Event, error) {
	query := `select ` + eventColumns + ` from events`
	args := []any{}
	if typ != "" {
		query += ` where event_type=$1`
		args = append(args, string(typ))
	}
	query += fmt.Sprintf(` order by start_at desc limit $%d offset $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Start, &e.End,
			&e.Type, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
