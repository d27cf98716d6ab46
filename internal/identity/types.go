// Package identity implements the account and credential lifecycle: signup,
// email verification, sign-in, password reset and stateless bearer tokens.
package identity

import (
	"strings"
	"time"
)

// Role is the closed set of account types.
type Role string

const (
	RoleCoach  Role = "Coach"
	RolePlayer Role = "Player"
)

// ParseRole maps a free-form string onto the closed role enumeration. The
// empty string defaults to Player.
func ParseRole(s string) (Role, bool) {
	switch strings.TrimSpace(s) {
	case "":
		return RolePlayer, true
	case string(RoleCoach), "coach", "COACH":
		return RoleCoach, true
	case string(RolePlayer), "player", "PLAYER":
		return RolePlayer, true
	default:
		return "", false
	}
}

// Account is the persisted credential record. Verification and reset fields
// come in nullable pairs: token and expiry are both present or both absent.
type Account struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	ContactNumber string
	Verified      bool
	Role          Role
	CreatedAt     time.Time
	LastLoginAt   *time.Time

	VerifyToken       *string
	VerifyTokenExpiry *time.Time

	ResetCode       *string
	ResetCodeExpiry *time.Time
}

// NormalizeEmail fixes the case policy at the edge: addresses are compared
// lower-cased and trimmed everywhere in this package.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
