package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"squadhub.org/internal/audit"
	"squadhub.org/internal/event"
	"squadhub.org/internal/identity"
)

type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        string    `json:"type"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        string    `json:"type"`
	CreatedBy   string    `json:"createdBy"`
}

func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listEvents(w, r)
	case http.MethodPost:
		a.createEvent(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// listEvents filters by type and date range. Coaches additionally see only
// events they created when the mine=true flag is set; the flag is ignored for
// players.
func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	typ, okType := event.ParseType(q.Get("type"))
	if !okType {
		writeError(w, r, http.StatusBadRequest, "unknown event type")
		return
	}
	from, err := parseTimeParam(q.Get("from"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "from must be RFC 3339")
		return
	}
	to, err := parseTimeParam(q.Get("to"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "to must be RFC 3339")
		return
	}

	f := event.Filter{Type: typ, From: from, To: to}
	if id.Role == identity.RoleCoach && q.Get("mine") == "true" {
		f.CreatedBy = id.Email
	}

	events, err := a.events.List(r.Context(), f)
	if err != nil {
		if errors.Is(err, event.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid date range")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(events))
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := requireRole(w, r, identity.RoleCoach)
	if !ok {
		return
	}
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	e, err := a.events.Create(r.Context(), event.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
		Type:        req.Type,
		CreatedBy:   id.Email,
	})
	if err != nil {
		if errors.Is(err, event.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid event input")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "event.created", map[string]any{
		"event_id": e.ID,
		"type":     string(e.Type),
	})
	writeJSON(w, http.StatusCreated, toEventResponse(e))
}

func (a *API) handleEventPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	q := r.URL.Query()

	typ, okType := event.ParseType(q.Get("type"))
	if !okType {
		writeError(w, r, http.StatusBadRequest, "unknown event type")
		return
	}
	limit := parseIntParam(q.Get("limit"), 10)
	page := parseIntParam(q.Get("page"), 1)

	events, err := a.events.Preview(r.Context(), typ, limit, page)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(events))
}

func parseTimeParam(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func parseIntParam(raw string, def int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func toEventResponse(e *event.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		Type:        string(e.Type),
		CreatedBy:   e.CreatedBy,
	}
}

func toEventResponses(events []event.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i]))
	}
	return out
}
