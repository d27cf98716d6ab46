package achievement

import (
	"context"
	"database/sql"
	"errors"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, a *Achievement) error {
	_, err := s.db.ExecContext(ctx,
		`insert into achievements(id, achieved_by, title, description, awarded_on)
		 values($1,$2,$3,$4,$5)`,
		a.ID, a.AchievedBy, a.Title, a.Description, a.AwardedOn,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Achievement, error) {
	var a Achievement
	err := s.db.QueryRowContext(ctx,
		`select id, achieved_by, title, description, awarded_on from achievements where id=$1`,
		id,
	).Scan(&a.ID, &a.AchievedBy, &a.Title, &a.Description, &a.AwardedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *PGStore) Update(ctx context.Context, a *Achievement) error {
	res, err := s.db.ExecContext(ctx,
		`update achievements set title=$2, description=$3 where id=$1`,
		a.ID, a.Title, a.Description,
	)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from achievements where id=$1`,
		id,
	)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListByAccount(ctx context.Context, email string) ([]Achievement, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, achieved_by, title, description, awarded_on from achievements
		 where achieved_by=$1 order by awarded_on desc`,
		email,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Achievement
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(&a.ID, &a.AchievedBy, &a.Title, &a.Description, &a.AwardedOn); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
