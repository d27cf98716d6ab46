package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"squadhub.org/internal/ids"
)

// Service orchestrates the signup, sign-in, verification and reset flows on
// top of an AccountStore, a Dispatcher and a token Issuer. All operations are
// request-scoped; the persisted account record is the only shared mutable
// resource.
type Service struct {
	accounts AccountStore
	issuer   *Issuer
	verify   *VerificationManager
	reset    *ResetManager
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithBaseURL sets the public base URL embedded into verification links.
func WithBaseURL(url string) ServiceOption {
	return func(s *Service) error {
		s.verify.baseURL = strings.TrimRight(strings.TrimSpace(url), "/")
		return nil
	}
}

// WithVerifyTokenFunc overrides verification token generation, for tests.
func WithVerifyTokenFunc(fn func() string) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.verify.newToken = fn
		}
		return nil
	}
}

// WithResetCodeFunc overrides reset code generation, for tests.
func WithResetCodeFunc(fn func() (string, error)) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.reset.newCode = fn
		}
		return nil
	}
}

// NewService constructs the authentication service.
func NewService(accounts AccountStore, mailer Dispatcher, issuer *Issuer, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		accounts: accounts,
		issuer:   issuer,
		now:      time.Now,
	}
	s.verify = &VerificationManager{
		accounts: accounts,
		mailer:   mailer,
		now:      func() time.Time { return s.now() },
		newToken: newVerifyToken,
	}
	s.reset = &ResetManager{
		accounts: accounts,
		mailer:   mailer,
		now:      func() time.Time { return s.now() },
		newCode:  newResetCode,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SignupInput carries the registration fields.
type SignupInput struct {
	Email         string
	Password      string
	Name          string
	ContactNumber string
	Role          string
}

// SignupResult reports the created account and, distinctly, whether the
// verification email went out. A failed dispatch does not undo the signup:
// verification can be re-triggered later.
type SignupResult struct {
	Account   *Account
	EmailSent bool
}

// Signup registers a new unverified account and triggers email verification.
// A duplicate email yields ErrEmailTaken; the store's conditional insert
// guarantees exactly one winner under concurrent signups for the same email.
func (s *Service) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") || in.Password == "" {
		return SignupResult{}, ErrInvalidInput
	}
	role, ok := ParseRole(in.Role)
	if !ok {
		return SignupResult{}, ErrInvalidInput
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return SignupResult{}, err
	}

	a := &Account{
		ID:            ids.New(),
		Name:          strings.TrimSpace(in.Name),
		Email:         email,
		PasswordHash:  hash,
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Verified:      false,
		Role:          role,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return SignupResult{}, err
	}

	if err := s.verify.Issue(ctx, a); err != nil {
		if errors.Is(err, ErrDispatchFailed) {
			return SignupResult{Account: a, EmailSent: false}, nil
		}
		return SignupResult{}, err
	}
	return SignupResult{Account: a, EmailSent: true}, nil
}

// SignIn authenticates the credentials and returns a bearer token for
// (email, role). Unknown emails yield ErrNotFound, unverified accounts
// ErrUnverified regardless of password correctness, and a password mismatch
// ErrInvalidCredentials. Success updates the last-login timestamp and is the
// only path that produces a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *Account, error) {
	a, err := s.accounts.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", nil, err
	}
	if !a.Verified {
		return "", nil, ErrUnverified
	}
	if err := VerifyPassword(a.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	a.LastLoginAt = &now
	if err := s.accounts.Save(ctx, a); err != nil {
		return "", nil, err
	}

	token, _, err := s.issuer.Generate(a.Email, a.Role, 0)
	if err != nil {
		return "", nil, err
	}
	return token, a, nil
}

// VerifyEmail redeems an email verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*Account, error) {
	return s.verify.Redeem(ctx, token)
}

// RequestPasswordReset issues a reset code to the given address.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	return s.reset.Request(ctx, NormalizeEmail(email))
}

// CompletePasswordReset redeems a reset code and replaces the password.
func (s *Service) CompletePasswordReset(ctx context.Context, email, code, newPassword string) error {
	return s.reset.Complete(ctx, NormalizeEmail(email), code, newPassword)
}

// Profile returns the account for the given email.
func (s *Service) Profile(ctx context.Context, email string) (*Account, error) {
	return s.accounts.FindByEmail(ctx, NormalizeEmail(email))
}

// UpdateProfile changes the mutable profile fields of the caller's account.
// The email is fixed from the caller's identity, never from the body.
func (s *Service) UpdateProfile(ctx context.Context, email, name, contactNumber string) (*Account, error) {
	a, err := s.accounts.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		a.Name = name
	}
	if contactNumber = strings.TrimSpace(contactNumber); contactNumber != "" {
		a.ContactNumber = contactNumber
	}
	if err := s.accounts.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
