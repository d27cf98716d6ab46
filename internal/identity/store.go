package identity

import "context"

// AccountStore describes the persistence operations the credential lifecycle
// requires. Email uniqueness is enforced by the store itself: Create is a
// single conditional insert, not a check followed by a write, so concurrent
// signups for the same email resolve to exactly one success.
type AccountStore interface {
	// Create inserts a new account. A duplicate email yields ErrEmailTaken.
	Create(ctx context.Context, a *Account) error

	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByVerifyToken(ctx context.Context, token string) (*Account, error)
	FindByEmailAndResetCode(ctx context.Context, email, code string) (*Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save persists mutable account fields (name, contact, tokens, expiries,
	// password hash, last login).
	Save(ctx context.Context, a *Account) error

	// MarkVerified flips verified to true and clears the verification token
	// and expiry in one conditional update keyed on the token, so concurrent
	// redemptions serialize at the store: the loser sees ErrNotFound.
	MarkVerified(ctx context.Context, token string) (*Account, error)

	// CompleteReset stores the new password hash and clears the reset code
	// and expiry in one conditional update keyed on (email, code).
	// ErrNotFound when the pair no longer matches.
	CompleteReset(ctx context.Context, email, code, passwordHash string) error
}

// Dispatcher sends a message to an address; it may fail. The email transport
// lives outside this package.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}
