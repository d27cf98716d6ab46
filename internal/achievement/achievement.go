// Package achievement records accolades awarded to team members.
package achievement

import (
	"context"
	"errors"
	"strings"
	"time"

	"squadhub.org/internal/ids"
)

var (
	ErrInvalidInput = errors.New("achievement: invalid input")
	ErrNotFound     = errors.New("achievement: not found")
)

// Achievement is an accolade attached to the account that earned it.
type Achievement struct {
	ID          string
	AchievedBy  string
	Title       string
	Description string
	AwardedOn   time.Time
}

// Store persists achievements. Update and Delete report ErrNotFound when the
// id matches nothing.
type Store interface {
	Create(ctx context.Context, a *Achievement) error
	Find(ctx context.Context, id string) (*Achievement, error)
	Update(ctx context.Context, a *Achievement) error
	Delete(ctx context.Context, id string) error
	ListByAccount(ctx context.Context, email string) ([]Achievement, error)
}

// AccountChecker answers whether an account exists. The identity store
// satisfies it.
type AccountChecker interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Service enforces award rules on top of a Store.
type Service struct {
	store    Store
	accounts AccountChecker
	now      func() time.Time
}

func NewService(store Store, accounts AccountChecker) *Service {
	return &Service{store: store, accounts: accounts, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(fn func() time.Time) *Service {
	if fn != nil {
		s.now = fn
	}
	return s
}

// Award grants an achievement to an existing account.
func (s *Service) Award(ctx context.Context, achievedBy, title, description string) (*Achievement, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(achievedBy) == "" {
		return nil, ErrInvalidInput
	}
	ok, err := s.accounts.ExistsByEmail(ctx, achievedBy)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	a := &Achievement{
		ID:          ids.New(),
		AchievedBy:  achievedBy,
		Title:       title,
		Description: strings.TrimSpace(description),
		AwardedOn:   s.now().UTC(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns a single achievement by id.
func (s *Service) Get(ctx context.Context, id string) (*Achievement, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.store.Find(ctx, id)
}

// Update replaces the title and description of an existing achievement. The
// recipient and award date are immutable.
func (s *Service) Update(ctx context.Context, id, title, description string) (*Achievement, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidInput
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Title = title
	a.Description = strings.TrimSpace(description)
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an achievement.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.store.Delete(ctx, id)
}

// ListByAccount returns the achievements earned by the given account.
func (s *Service) ListByAccount(ctx context.Context, email string) ([]Achievement, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrInvalidInput
	}
	return s.store.ListByAccount(ctx, email)
}
