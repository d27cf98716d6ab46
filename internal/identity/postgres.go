package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ AccountStore = (*PGStore)(nil)

// PGStore implements AccountStore using PostgreSQL. Email uniqueness rides on
// the unique index of the accounts table, so Create is a single conditional
// insert with no check-then-write race.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const accountColumns = `id, name, email, password_hash, contact_number, verified, role,
	created_at, last_login_at, verify_token, verify_token_expiry, reset_code, reset_code_expiry`

func (s *PGStore) Create(ctx context.Context, a *Account) error {
	_, err := s.db.ExecContext(ctx,
		`insert into accounts(id, name, email, password_hash, contact_number, verified, role, created_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.ContactNumber, a.Verified, a.Role, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where email=$1`, email)
	return scanAccount(row)
}

func (s *PGStore) FindByVerifyToken(ctx context.Context, token string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where verify_token=$1`, token)
	return scanAccount(row)
}

func (s *PGStore) FindByEmailAndResetCode(ctx context.Context, email, code string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where email=$1 and reset_code=$2`, email, code)
	return scanAccount(row)
}

func (s *PGStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from accounts where email=$1)`, email).Scan(&exists)
	return exists, err
}

func (s *PGStore) Save(ctx context.Context, a *Account) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set name=$2, password_hash=$3, contact_number=$4, verified=$5,
			last_login_at=$6, verify_token=$7, verify_token_expiry=$8, reset_code=$9, reset_code_expiry=$10
		 where id=$1`,
		a.ID, a.Name, a.PasswordHash, a.ContactNumber, a.Verified,
		a.LastLoginAt, a.VerifyToken, a.VerifyTokenExpiry, a.ResetCode, a.ResetCodeExpiry,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) MarkVerified(ctx context.Context, token string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`update accounts set verified=true, verify_token=null, verify_token_expiry=null
		 where verify_token=$1
		 returning `+accountColumns, token)
	return scanAccount(row)
}

func (s *PGStore) CompleteReset(ctx context.Context, email, code, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set password_hash=$3, reset_code=null, reset_code_expiry=null
		 where email=$1 and reset_code=$2`,
		email, code, passwordHash,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var (
		a           Account
		lastLogin   sql.NullTime
		verifyTok   sql.NullString
		verifyExp   sql.NullTime
		resetCode   sql.NullString
		resetExpiry sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.ContactNumber, &a.Verified, &a.Role,
		&a.CreatedAt, &lastLogin, &verifyTok, &verifyExp, &resetCode, &resetExpiry,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		a.LastLoginAt = &lastLogin.Time
	}
	if verifyTok.Valid {
		a.VerifyToken = &verifyTok.String
	}
	if verifyExp.Valid {
		a.VerifyTokenExpiry = &verifyExp.Time
	}
	if resetCode.Valid {
		a.ResetCode = &resetCode.String
	}
	if resetExpiry.Valid {
		a.ResetCodeExpiry = &resetExpiry.Time
	}
	return &a, nil
}
