package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = time.Hour

// Claims is the bearer token payload: subject (account email), role,
// issued-at and expiry.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer creates and validates stateless HS256 bearer tokens. Validation is
// pure and side-effect free, so an Issuer may be shared by any number of
// concurrent callers. There is no revocation list: a token simply becomes
// unusable once its expiry elapses. Expiry comparisons use zero clock-skew
// leeway.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithIssuerClaim sets the iss claim embedded into generated tokens.
func WithIssuerClaim(iss string) IssuerOption {
	return func(i *Issuer) { i.issuer = strings.TrimSpace(iss) }
}

// WithTokenClock overrides the time source, for tests.
func WithTokenClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer. The signing secret comes from configuration
// and must not be empty; defaultTTL <= 0 falls back to one hour.
func NewIssuer(secret string, defaultTTL time.Duration, opts ...IssuerOption) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("identity: signing secret is not configured")
	}
	if defaultTTL <= 0 {
		defaultTTL = defaultTokenTTL
	}
	iss := &Issuer{
		secret: []byte(secret),
		ttl:    defaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss, nil
}

// Generate signs a bearer token for the subject and role. A non-positive ttl
// uses the configured default.
func (i *Issuer) Generate(subject string, role Role, ttl time.Duration) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, ErrInvalidInput
	}
	if ttl <= 0 {
		ttl = i.ttl
	}
	now := i.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate checks signature integrity first, then expiry, and returns the
// subject and role carried by the token. Forged or malformed tokens yield
// ErrInvalidToken; structurally sound tokens past their expiry yield
// ErrTokenExpired.
func (i *Issuer) Validate(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, ErrInvalidToken
	}
	if i.issuer != "" && claims.Issuer != i.issuer {
		return Identity{}, ErrInvalidToken
	}
	role, ok := ParseRole(claims.Role)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Email: claims.Subject, Role: role}, nil
}
