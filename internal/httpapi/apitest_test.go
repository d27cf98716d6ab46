package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"squadhub.org/internal/achievement"
	"squadhub.org/internal/chat"
	"squadhub.org/internal/event"
	"squadhub.org/internal/identity"
)

// fakeAccounts is an in-memory identity.AccountStore for handler tests.
type fakeAccounts struct {
	mu      sync.Mutex
	byEmail map[string]*identity.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: make(map[string]*identity.Account)}
}

func clone(a *identity.Account) *identity.Account {
	cp := *a
	return &cp
}

func (f *fakeAccounts) Create(ctx context.Context, a *identity.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[a.Email]; ok {
		return identity.ErrEmailTaken
	}
	f.byEmail[a.Email] = clone(a)
	return nil
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byEmail[email]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return clone(a), nil
}

func (f *fakeAccounts) FindByVerifyToken(ctx context.Context, token string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byEmail {
		if a.VerifyToken != nil && *a.VerifyToken == token {
			return clone(a), nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeAccounts) FindByEmailAndResetCode(ctx context.Context, email, code string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byEmail[email]
	if !ok || a.ResetCode == nil || *a.ResetCode != code {
		return nil, identity.ErrNotFound
	}
	return clone(a), nil
}

func (f *fakeAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeAccounts) Save(ctx context.Context, a *identity.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[a.Email]; !ok {
		return identity.ErrNotFound
	}
	f.byEmail[a.Email] = clone(a)
	return nil
}

func (f *fakeAccounts) MarkVerified(ctx context.Context, token string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byEmail {
		if a.VerifyToken != nil && *a.VerifyToken == token {
			a.Verified = true
			a.VerifyToken = nil
			a.VerifyTokenExpiry = nil
			return clone(a), nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeAccounts) CompleteReset(ctx context.Context, email, code, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byEmail[email]
	if !ok || a.ResetCode == nil || *a.ResetCode != code {
		return identity.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.ResetCode = nil
	a.ResetCodeExpiry = nil
	return nil
}

type nullMailer struct {
	mu   sync.Mutex
	sent int
	fail error
}

func (n *nullMailer) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent++
	return nil
}

type fixture struct {
	handler  http.Handler
	api      *API
	accounts *fakeAccounts
	mailer   *nullMailer
	issuer   *identity.Issuer
	svc      *identity.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := newFakeAccounts()
	mailer := &nullMailer{}

	issuer, err := identity.NewIssuer("handler-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	svc, err := identity.NewService(accounts, mailer, issuer,
		identity.WithBaseURL("http://localhost:8080"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	api := New(
		ReadyProbe{},
		svc,
		accounts,
		issuer,
		chat.NewService(newMemChatStore(), accounts),
		event.NewService(newMemEventStore()),
		achievement.NewService(newMemAchievementStore(), accounts),
		Options{Version: "test", RateBurst: 1000, RatePerSec: 1000},
	)
	return &fixture{
		handler:  api.Handler(),
		api:      api,
		accounts: accounts,
		mailer:   mailer,
		issuer:   issuer,
		svc:      svc,
	}
}

// signupVerified registers and verifies an account, returning a bearer token.
func (f *fixture) signupVerified(t *testing.T, email, password, role string) string {
	t.Helper()
	res, err := f.svc.Signup(context.Background(), identity.SignupInput{
		Email: email, Password: password, Name: "Test", Role: role,
	})
	if err != nil {
		t.Fatalf("Signup(%s): %v", email, err)
	}
	stored, err := f.accounts.FindByEmail(context.Background(), res.Account.Email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if _, err := f.svc.VerifyEmail(context.Background(), *stored.VerifyToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	token, _, err := f.issuer.Generate(res.Account.Email, res.Account.Role, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return token
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

// --- in-memory domain stores for handler tests ---

type memEventStore struct {
	mu     sync.Mutex
	events []event.Event
}

func newMemEventStore() *memEventStore { return &memEventStore{} }

func (m *memEventStore) Create(ctx context.Context, e *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memEventStore) List(ctx context.Context, f event.Filter) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.Event
	for _, e := range m.events {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && e.Start.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Start.After(f.To) {
			continue
		}
		if f.CreatedBy != "" && e.CreatedBy != f.CreatedBy {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memEventStore) Preview(ctx context.Context, typ event.Type, limit, offset int) ([]event.Event, error) {
	all, err := m.List(ctx, event.Filter{Type: typ})
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type memChatStore struct {
	mu       sync.Mutex
	order    []string
	groups   map[string]chat.Group
	members  map[string]map[string]bool
	messages map[string][]chat.Message
}

func newMemChatStore() *memChatStore {
	return &memChatStore{
		groups:   make(map[string]chat.Group),
		members:  make(map[string]map[string]bool),
		messages: make(map[string][]chat.Message),
	}
}

func (m *memChatStore) CreateGroup(ctx context.Context, g *chat.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = *g
	m.order = append(m.order, g.ID)
	m.members[g.ID] = map[string]bool{g.CreatedBy: true}
	return nil
}

func (m *memChatStore) FindGroup(ctx context.Context, id string) (*chat.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return &g, nil
}

func (m *memChatStore) AddMember(ctx context.Context, groupID, email string, joinedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.members[groupID]
	if !ok {
		set = make(map[string]bool)
		m.members[groupID] = set
	}
	if set[email] {
		return chat.ErrAlreadyJoined
	}
	set[email] = true
	return nil
}

func (m *memChatStore) RemoveMember(ctx context.Context, groupID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.members[groupID][email] {
		return chat.ErrNotMember
	}
	delete(m.members[groupID], email)
	return nil
}

func (m *memChatStore) IsMember(ctx context.Context, groupID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[groupID][email], nil
}

func (m *memChatStore) ListGroupsForMember(ctx context.Context, email string) ([]chat.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []chat.Group
	for _, id := range m.order {
		if m.members[id][email] {
			out = append(out, m.groups[id])
		}
	}
	return out, nil
}

func (m *memChatStore) ListGroupsExcludingMember(ctx context.Context, email string) ([]chat.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []chat.Group
	for _, id := range m.order {
		if !m.members[id][email] {
			out = append(out, m.groups[id])
		}
	}
	return out, nil
}

func (m *memChatStore) CreateMessage(ctx context.Context, msg *chat.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.GroupID] = append(m.messages[msg.GroupID], *msg)
	return nil
}

func (m *memChatStore) ListMessages(ctx context.Context, groupID string, limit int) ([]chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[groupID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return append([]chat.Message(nil), msgs...), nil
}

type memAchievementStore struct {
	mu    sync.Mutex
	items []achievement.Achievement
}

func newMemAchievementStore() *memAchievementStore { return &memAchievementStore{} }

func (m *memAchievementStore) Create(ctx context.Context, a *achievement.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *a)
	return nil
}

func (m *memAchievementStore) Find(ctx context.Context, id string) (*achievement.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, achievement.ErrNotFound
}

func (m *memAchievementStore) Update(ctx context.Context, in *achievement.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.items {
		if a.ID == in.ID {
			m.items[i] = *in
			return nil
		}
	}
	return achievement.ErrNotFound
}

func (m *memAchievementStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.items {
		if a.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return achievement.ErrNotFound
}

func (m *memAchievementStore) ListByAccount(ctx context.Context, email string) ([]achievement.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []achievement.Achievement
	for _, a := range m.items {
		if a.AchievedBy == email {
			out = append(out, a)
		}
	}
	return out, nil
}
