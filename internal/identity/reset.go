package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// ResetCodeTTL is how long a password reset code stays redeemable.
const ResetCodeTTL = 7 * 24 * time.Hour

// ResetManager issues and redeems single-use numeric password reset codes.
type ResetManager struct {
	accounts AccountStore
	mailer   Dispatcher
	now      func() time.Time
	newCode  func() (string, error)
}

// Request generates a 6-digit code for the account, persists it with a 7 day
// expiry and emails it. A request while a code is already pending simply
// overwrites the pending code and expiry. Unknown emails yield ErrNotFound;
// a failed send yields ErrDispatchFailed with the code left in place.
func (m *ResetManager) Request(ctx context.Context, email string) error {
	a, err := m.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := m.newCode()
	if err != nil {
		return err
	}
	expiry := m.now().UTC().Add(ResetCodeTTL)
	a.ResetCode = &code
	a.ResetCodeExpiry = &expiry
	if err := m.accounts.Save(ctx, a); err != nil {
		return err
	}

	body := "Your OTP for password reset is: " + code
	if err := m.mailer.Send(ctx, a.Email, "Reset Your Password", body); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	return nil
}

// Complete redeems a reset code. A missing (email, code) match and a code at
// or past its expiry both yield ErrNotFound. On success the password is
// replaced and the code and expiry are cleared together, making the code
// single-use.
func (m *ResetManager) Complete(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}
	a, err := m.accounts.FindByEmailAndResetCode(ctx, email, code)
	if err != nil {
		return err
	}
	if a.ResetCodeExpiry == nil || !m.now().Before(*a.ResetCodeExpiry) {
		return ErrNotFound
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return m.accounts.CompleteReset(ctx, a.Email, code, hash)
}

// newResetCode draws a code uniformly from [100000, 999999] using a
// cryptographic source, so every code is exactly 6 decimal digits.
func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}
