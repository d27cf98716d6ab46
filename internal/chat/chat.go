// Package chat implements team chat groups and their message streams.
// Membership is modeled as plain join rows, not object graphs.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"squadhub.org/internal/ids"
)

var (
	ErrInvalidInput  = errors.New("chat: invalid input")
	ErrNotFound      = errors.New("chat: not found")
	ErrNotMember     = errors.New("chat: not a group member")
	ErrAlreadyJoined = errors.New("chat: already a member")
)

// Group is a named chat room owned by the account that created it.
type Group struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// Message is a single chat entry within a group.
type Message struct {
	ID      string
	GroupID string
	Sender  string
	Body    string
	SentAt  time.Time
}

// Store persists groups, membership rows and messages. CreateGroup writes the
// group and its creator's membership row in the same transaction, so a group
// is never visible without at least one member. RemoveMember reports
// ErrNotMember when no membership row existed.
type Store interface {
	CreateGroup(ctx context.Context, g *Group) error
	FindGroup(ctx context.Context, id string) (*Group, error)
	AddMember(ctx context.Context, groupID, email string, joinedAt time.Time) error
	RemoveMember(ctx context.Context, groupID, email string) error
	IsMember(ctx context.Context, groupID, email string) (bool, error)
	ListGroupsForMember(ctx context.Context, email string) ([]Group, error)
	ListGroupsExcludingMember(ctx context.Context, email string) ([]Group, error)
	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, groupID string, limit int) ([]Message, error)
}

// AccountChecker answers whether an account exists. The identity store
// satisfies it.
type AccountChecker interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Service enforces the group rules on top of a Store.
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

// CreateGroup creates a group with the creator enrolled as its first member.
// Both writes happen in one store transaction.
func (s *Service) CreateGroup(ctx context.Context, name, createdBy string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	g := &Group{
		ID:        ids.New(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// AddMember enrolls an existing account into an existing group.
func (s *Service) AddMember(ctx context.Context, groupID, email string) error {
	if _, err := s.store.FindGroup(ctx, groupID); err != nil {
		return err
	}
	ok, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return s.store.AddMember(ctx, groupID, email, s.now().UTC())
}

// Leave removes the account's membership row. Messages already sent stay in
// the group. Leaving a group the account is not in yields ErrNotMember.
func (s *Service) Leave(ctx context.Context, groupID, email string) error {
	if _, err := s.store.FindGroup(ctx, groupID); err != nil {
		return err
	}
	return s.store.RemoveMember(ctx, groupID, email)
}

// JoinedGroups lists the groups the account is a member of, newest first.
func (s *Service) JoinedGroups(ctx context.Context, email string) ([]Group, error) {
	return s.store.ListGroupsForMember(ctx, email)
}

// AvailableGroups lists the groups the account has not joined yet.
func (s *Service) AvailableGroups(ctx context.Context, email string) ([]Group, error) {
	return s.store.ListGroupsExcludingMember(ctx, email)
}

// PostMessage appends a message to a group. The sender must be a member.
func (s *Service) PostMessage(ctx context.Context, groupID, sender, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrInvalidInput
	}
	ok, err := s.store.IsMember(ctx, groupID, sender)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	m := &Message{
		ID:      ids.New(),
		GroupID: groupID,
		Sender:  sender,
		Body:    body,
		SentAt:  s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Messages lists a group's messages, oldest first. Only members may read.
func (s *Service) Messages(ctx context.Context, groupID, reader string, limit int) ([]Message, error) {
	ok, err := s.store.IsMember(ctx, groupID, reader)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	return s.store.ListMessages(ctx, groupID, limit)
}
