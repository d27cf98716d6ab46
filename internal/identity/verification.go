package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VerifyTokenTTL is how long an email-ownership token stays redeemable.
const VerifyTokenTTL = 24 * time.Hour

// VerificationManager issues and redeems single-use email-ownership tokens.
type VerificationManager struct {
	accounts AccountStore
	mailer   Dispatcher
	baseURL  string
	now      func() time.Time
	newToken func() string
}

// Issue generates a fresh unguessable token, persists it with a 24 hour
// expiry and emails the verification link. A failed send yields
// ErrDispatchFailed with the token left persisted so the send can be retried
// later without reissuing.
func (m *VerificationManager) Issue(ctx context.Context, a *Account) error {
	token := m.newToken()
	expiry := m.now().UTC().Add(VerifyTokenTTL)
	a.VerifyToken = &token
	a.VerifyTokenExpiry = &expiry
	if err := m.accounts.Save(ctx, a); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/verify-email?token=%s", m.baseURL, token)
	body := "Please click on the link to verify your email: " + link
	if err := m.mailer.Send(ctx, a.Email, "Verify Your Email", body); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	return nil
}

// Redeem consumes a verification token. Unknown tokens yield ErrNotFound.
// Tokens at or past their expiry yield ErrTokenExpired and are retained, so
// an expired link is never silently treated as valid. On success the account
// is marked verified and the token and expiry are cleared together; the
// cleared token can never be redeemed twice.
func (m *VerificationManager) Redeem(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	a, err := m.accounts.FindByVerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if a.VerifyTokenExpiry == nil || !m.now().Before(*a.VerifyTokenExpiry) {
		return nil, ErrTokenExpired
	}
	// The conditional update serializes concurrent redemptions: at most one
	// caller wins, the rest observe ErrNotFound.
	return m.accounts.MarkVerified(ctx, token)
}

func newVerifyToken() string {
	return uuid.NewString()
}
