package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"squadhub.org/internal/chat"
	"squadhub.org/internal/identity"
)

type createGroupRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	Email string `json:"email"`
}

type postMessageRequest struct {
	Body string `json:"body"`
}

type groupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageResponse struct {
	ID     string    `json:"id"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

func (a *API) handleChatGroups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listChatGroups(w, r)
	case http.MethodPost:
		a.createChatGroup(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// listChatGroups returns the caller's groups, or with ?membership=available
// the groups the caller has not joined yet.
func (a *API) listChatGroups(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var (
		groups []chat.Group
		err    error
	)
	switch r.URL.Query().Get("membership") {
	case "", "joined":
		groups, err = a.chat.JoinedGroups(r.Context(), id.Email)
	case "available":
		groups, err = a.chat.AvailableGroups(r.Context(), id.Email)
	default:
		writeError(w, r, http.StatusBadRequest, "membership must be joined or available")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse{
			ID: g.ID, Name: g.Name, CreatedBy: g.CreatedBy, CreatedAt: g.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createChatGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req createGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	g, err := a.chat.CreateGroup(r.Context(), req.Name, id.Email)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "group name is required")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, groupResponse{
		ID: g.ID, Name: g.Name, CreatedBy: g.CreatedBy, CreatedAt: g.CreatedAt,
	})
}

// handleChatGroupResource routes /api/chat/groups/{id}/members,
// /api/chat/groups/{id}/messages and /api/chat/groups/{id}/leave.
func (a *API) handleChatGroupResource(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/chat/groups/")
	groupID, rest, _ := strings.Cut(path, "/")
	if groupID == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch rest {
	case "members":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.addGroupMember(w, r, groupID)
	case "messages":
		switch r.Method {
		case http.MethodPost:
			a.postGroupMessage(w, r, groupID, id)
		case http.MethodGet:
			a.listGroupMessages(w, r, groupID, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case "leave":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.leaveGroup(w, r, groupID, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) addGroupMember(w http.ResponseWriter, r *http.Request, groupID string) {
	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := identity.NormalizeEmail(req.Email)
	if email == "" {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}

	err := a.chat.AddMember(r.Context(), groupID, email)
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "group or account not found")
		return
	case errors.Is(err, chat.ErrAlreadyJoined):
		writeError(w, r, http.StatusConflict, "already a member")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Message: "Member added", Success: true})
}

func (a *API) leaveGroup(w http.ResponseWriter, r *http.Request, groupID string, id identity.Identity) {
	err := a.chat.Leave(r.Context(), groupID, id.Email)
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "group not found")
		return
	case errors.Is(err, chat.ErrNotMember):
		writeError(w, r, http.StatusForbidden, "not a group member")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Message: "Left group", Success: true})
}

func (a *API) postGroupMessage(w http.ResponseWriter, r *http.Request, groupID string, id identity.Identity) {
	var req postMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	m, err := a.chat.PostMessage(r.Context(), groupID, id.Email, req.Body)
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "message body is required")
		return
	case errors.Is(err, chat.ErrNotMember):
		writeError(w, r, http.StatusForbidden, "not a group member")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{
		ID: m.ID, Sender: m.Sender, Body: m.Body, SentAt: m.SentAt,
	})
}

func (a *API) listGroupMessages(w http.ResponseWriter, r *http.Request, groupID string, id identity.Identity) {
	limit := parseIntParam(r.URL.Query().Get("limit"), 0)

	msgs, err := a.chat.Messages(r.Context(), groupID, id.Email, limit)
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrNotMember):
		writeError(w, r, http.StatusForbidden, "not a group member")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{ID: m.ID, Sender: m.Sender, Body: m.Body, SentAt: m.SentAt})
	}
	writeJSON(w, http.StatusOK, out)
}
