package chat

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Duplicate membership rides on the
// primary key of group_members, so AddMember needs no read-before-write.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// CreateGroup inserts the group and the creator's membership row in one
// transaction. A failure on either insert leaves no half-created group behind.
func (s *PGStore) CreateGroup(ctx context.Context, g *Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`insert into chat_groups(id, name, created_by, created_at) values($1,$2,$3,$4)`,
		g.ID, g.Name, g.CreatedBy, g.CreatedAt,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into group_members(group_id, email, joined_at) values($1,$2,$3)`,
		g.ID, g.CreatedBy, g.CreatedAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) FindGroup(ctx context.Context, id string) (*Group, error) {
	var g Group
	err := s.db.QueryRowContext(ctx,
		`select id, name, created_by, created_at from chat_groups where id=$1`, id,
	).Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *PGStore) AddMember(ctx context.Context, groupID, email string, joinedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`insert into group_members(group_id, email, joined_at) values($1,$2,$3)`,
		groupID, email, joinedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyJoined
		}
		return err
	}
	return nil
}

func (s *PGStore) RemoveMember(ctx context.Context, groupID, email string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from group_members where group_id=$1 and email=$2`,
		groupID, email,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *PGStore) ListGroupsForMember(ctx context.Context, email string) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`select g.id, g.name, g.created_by, g.created_at from chat_groups g
		 join group_members m on m.group_id = g.id
		 where m.email=$1 order by g.created_at desc`,
		email,
	)
	if err != nil {
		return nil, err
	}
	return scanGroups(rows)
}

func (s *PGStore) ListGroupsExcludingMember(ctx context.Context, email string) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`select g.id, g.name, g.created_by, g.created_at from chat_groups g
		 where not exists (
		     select 1 from group_members m where m.group_id = g.id and m.email=$1
		 ) order by g.created_at desc`,
		email,
	)
	if err != nil {
		return nil, err
	}
	return scanGroups(rows)
}

func scanGroups(rows *sql.Rows) ([]Group, error) {
	defer rows.Close()
	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PGStore) IsMember(ctx context.Context, groupID, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from group_members where group_id=$1 and email=$2)`,
		groupID, email,
	).Scan(&exists)
	return exists, err
}

func (s *PGStore) CreateMessage(ctx context.Context, m *Message) error {
	_, err := s.db.ExecContext(ctx,
		`insert into messages(id, group_id, sender, body, sent_at) values($1,$2,$3,$4,$5)`,
		m.ID, m.GroupID, m.Sender, m.Body, m.SentAt,
	)
	return err
}

func (s *PGStore) ListMessages(ctx context.Context, groupID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, group_id, sender, body, sent_at from messages
		 where group_id=$1 order by sent_at asc limit $2`,
		groupID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Sender, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
