// Package event implements team scheduling: practices, matches and other
// calendar entries.
package event

import (
	"context"
	"errors"
	"strings"
	"time"

	"squadhub.org/internal/ids"
)

var (
	ErrInvalidInput = errors.New("event: invalid input")
	ErrNotFound     = errors.New("event: not found")
)

// Type is the closed set of event kinds.
type Type string

const (
	TypeSchedule Type = "schedule"
	TypePractice Type = "practice"
	TypeMatch    Type = "match"
)

// ParseType maps a free-form string onto the type enumeration. The empty
// string means "any" in filters and is invalid for creation.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", true
	case string(TypeSchedule):
		return TypeSchedule, true
	case string(TypePractice):
		return TypePractice, true
	case string(TypeMatch):
		return TypeMatch, true
	default:
		return "", false
	}
}

// Event is a calendar entry created by a coach.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Type        Type
	CreatedBy   string
	CreatedAt   time.Time
}

// Filter narrows a listing. Zero values mean "no constraint".
type Filter struct {
	Type      Type
	From      time.Time
	To        time.Time
	CreatedBy string
}

// Store persists events.
type Store interface {
	Create(ctx context.Context, e *Event) error
	List(ctx context.Context, f Filter) ([]Event, error)
	// Preview pages events of one type (or all types for the empty type),
	// ordered by start time descending.
	Preview(ctx context.Context, typ Type, limit, offset int) ([]Event, error)
}

// Service enforces event rules on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(fn func() time.Time) *Service {
	if fn != nil {
		s.now = fn
	}
	return s
}

// CreateInput carries the creation fields.
type CreateInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Type        string
	CreatedBy   string
}

// Create validates and persists a new event. The end must not precede the
// start; a missing end defaults to the start.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.Start.IsZero() {
		return nil, ErrInvalidInput
	}
	typ, ok := ParseType(in.Type)
	if !ok || typ == "" {
		return nil, ErrInvalidInput
	}
	end := in.End
	if end.IsZero() {
		end = in.Start
	}
	if end.Before(in.Start) {
		return nil, ErrInvalidInput
	}

	e := &Event{
		ID:          ids.New(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Start:       in.Start.UTC(),
		End:         end.UTC(),
		Type:        typ,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns events matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Event, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, ErrInvalidInput
	}
	return s.store.List(ctx, f)
}

// Preview pages recent events, newest start first. Page numbering is 1-based;
// out-of-range values fall back to the first page of 10.
func (s *Service) Preview(ctx context.Context, typ Type, limit, page int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	return s.store.Preview(ctx, typ, limit, (page-1)*limit)
}
