package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

type recordingStore struct {
	created    []*Event
	lastFilter Filter
	lastType   Type
	lastLimit  int
	lastOffset int
}

func (r *recordingStore) Create(ctx context.Context, e *Event) error {
	r.created = append(r.created, e)
	return nil
}

func (r *recordingStore) List(ctx context.Context, f Filter) ([]Event, error) {
	r.lastFilter = f
	return nil, nil
}

func (r *recordingStore) Preview(ctx context.Context, typ Type, limit, offset int) ([]Event, error) {
	r.lastType, r.lastLimit, r.lastOffset = typ, limit, offset
	return nil, nil
}

func TestParseType(t *testing.T) {
	cases := map[string]struct {
		typ Type
		ok  bool
	}{
		"":         {"", true},
		"match":    {TypeMatch, true},
		"MATCH":    {TypeMatch, true},
		"practice": {TypePractice, true},
		"schedule": {TypeSchedule, true},
		"banquet":  {"", false},
	}
	for in, want := range cases {
		typ, ok := ParseType(in)
		if typ != want.typ || ok != want.ok {
			t.Fatalf("ParseType(%q) = (%q, %v), want (%q, %v)", in, typ, ok, want.typ, want.ok)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store).WithClock(fixedClock)
	start := fixedClock().Add(24 * time.Hour)

	bad := []CreateInput{
		{Title: "", Start: start, Type: "match"},
		{Title: "Final", Type: "match"},                                         // no start
		{Title: "Final", Start: start, Type: ""},                                // type required on create
		{Title: "Final", Start: start, Type: "banquet"},                         // unknown type
		{Title: "Final", Start: start, End: start.Add(-time.Hour), Type: "match"}, // end before start
	}
	for _, in := range bad {
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Create(%+v): expected ErrInvalidInput, got %v", in, err)
		}
	}
	if len(store.created) != 0 {
		t.Fatalf("invalid input must not reach the store")
	}
}

func TestCreateDefaultsEndToStart(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store).WithClock(fixedClock)
	start := fixedClock().Add(24 * time.Hour)

	e, err := svc.Create(context.Background(), CreateInput{
		Title: "Practice", Start: start, Type: "Practice", CreatedBy: "coach@x.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !e.End.Equal(start) {
		t.Fatalf("end = %v, want %v", e.End, start)
	}
	if e.Type != TypePractice {
		t.Fatalf("type = %q, want practice", e.Type)
	}
	if e.ID == "" || !e.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestListRejectsInvertedRange(t *testing.T) {
	svc := NewService(&recordingStore{})
	f := Filter{From: fixedClock(), To: fixedClock().Add(-time.Hour)}
	if _, err := svc.List(context.Background(), f); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPreviewPaging(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store)

	if _, err := svc.Preview(context.Background(), TypeMatch, 0, 0); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if store.lastLimit != 10 || store.lastOffset != 0 {
		t.Fatalf("defaults: limit=%d offset=%d", store.lastLimit, store.lastOffset)
	}

	if _, err := svc.Preview(context.Background(), "", 20, 3); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if store.lastLimit != 20 || store.lastOffset != 40 {
		t.Fatalf("page 3 of 20: limit=%d offset=%d", store.lastLimit, store.lastOffset)
	}
}

func TestPGStoreListBuildsFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	from := fixedClock()
	to := from.Add(7 * 24 * time.Hour)
	mock.ExpectQuery(`select (.+) from events where event_type=\$1 and start_at >= \$2 and start_at <= \$3 and created_by=\$4 order by start_at asc`).
		WithArgs("match", from, to, "coach@x.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "start_at", "end_at", "event_type", "created_by", "created_at",
		}).AddRow("01A", "Final", "", from, from, "match", "coach@x.com", from))

	events, err := store.List(context.Background(), Filter{
		Type: TypeMatch, From: from, To: to, CreatedBy: "coach@x.com",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Final" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreListNoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	mock.ExpectQuery(`select (.+) from events order by start_at asc`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "start_at", "end_at", "event_type", "created_by", "created_at",
		}))

	if _, err := store.List(context.Background(), Filter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStorePreview(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	mock.ExpectQuery(`select (.+) from events where event_type=\$1 order by start_at desc limit \$2 offset \$3`).
		WithArgs("practice", 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "start_at", "end_at", "event_type", "created_by", "created_at",
		}))

	if _, err := store.Preview(context.Background(), TypePractice, 10, 20); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
