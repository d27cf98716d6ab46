// Package httpapi is the HTTP layer: routing, middleware and handlers.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"squadhub.org/internal/achievement"
	"squadhub.org/internal/chat"
	"squadhub.org/internal/event"
	"squadhub.org/internal/identity"
	"squadhub.org/internal/obs"
)

// ReadyProbe reports readiness, typically by pinging the database.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the tunables of the HTTP layer.
type Options struct {
	Version      string
	MaxBodyBytes int64
	RateBurst    int
	RatePerSec   int
}

// API wires the services to their routes.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	opts       Options

	identity     *identity.Service
	accounts     identity.AccountStore
	issuer       *identity.Issuer
	chat         *chat.Service
	events       *event.Service
	achievements *achievement.Service
}

func New(
	rp ReadyProbe,
	idsvc *identity.Service,
	accounts identity.AccountStore,
	issuer *identity.Issuer,
	chatsvc *chat.Service,
	eventsvc *event.Service,
	achsvc *achievement.Service,
	opts Options,
) *API {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 10
	}
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		opts:         opts,
		identity:     idsvc,
		accounts:     accounts,
		issuer:       issuer,
		chat:         chatsvc,
		events:       eventsvc,
		achievements: achsvc,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// credential lifecycle
	a.mux.HandleFunc("/auth/signup", a.handleSignup)
	a.mux.HandleFunc("/auth/signin", a.handleSignIn)
	a.mux.HandleFunc("/auth/verify-email", a.handleVerifyEmail)
	a.mux.HandleFunc("/auth/request-reset-password", a.handleRequestReset)
	a.mux.HandleFunc("/auth/reset-password", a.handleResetPassword)

	// authenticated surface
	a.mux.HandleFunc("/api/userinfo", a.handleUserInfo)
	a.mux.HandleFunc("/api/events", a.handleEvents)
	a.mux.HandleFunc("/api/events/preview", a.handleEventPreview)
	a.mux.HandleFunc("/api/chat/groups", a.handleChatGroups)
	a.mux.HandleFunc("/api/chat/groups/", a.handleChatGroupResource)
	a.mux.HandleFunc("/api/achievements", a.handleAchievements)
	a.mux.HandleFunc("/api/achievements/", a.handleAchievementResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux. The gate sits
// innermost so every request it sees is already logged and rate limited.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = obs.Instrument(h)
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSec)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	return RequestID(h)
}

// --- probe handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "squadhub-api",
		"version": a.opts.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "squadhub-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.opts.Version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// decodeJSON decodes a strict JSON body. The size cap is applied once by the
// MaxBodyBytes middleware, so the raw body is read directly here.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// requireIdentity rejects anonymous callers. The gate attaches identity when a
// valid token is present; everything else arrives here without one.
func requireIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="squadhub"`)
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return identity.Identity{}, false
	}
	return id, true
}

// requireRole rejects callers whose role differs from the required one.
func requireRole(w http.ResponseWriter, r *http.Request, role identity.Role) (identity.Identity, bool) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return identity.Identity{}, false
	}
	if id.Role != role {
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return identity.Identity{}, false
	}
	return id, true
}
