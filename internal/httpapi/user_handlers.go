package httpapi

import (
	"errors"
	"net/http"
	"time"

	"squadhub.org/internal/identity"
)

type userInfoResponse struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	ContactNumber string     `json:"contactNumber"`
	Role          string     `json:"role"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

type updateUserRequest struct {
	Name          string `json:"name"`
	ContactNumber string `json:"contactNumber"`
}

func (a *API) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getUserInfo(w, r, id)
	case http.MethodPut:
		a.updateUserInfo(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) getUserInfo(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	account, err := a.identity.Profile(r.Context(), id.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toUserInfo(account))
}

// updateUserInfo changes the mutable profile fields. The account is always the
// caller's own: the email comes from the verified identity, not the body.
func (a *API) updateUserInfo(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	account, err := a.identity.UpdateProfile(r.Context(), id.Email, req.Name, req.ContactNumber)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toUserInfo(account))
}

func toUserInfo(a *identity.Account) userInfoResponse {
	return userInfoResponse{
		Name:          a.Name,
		Email:         a.Email,
		ContactNumber: a.ContactNumber,
		Role:          string(a.Role),
		CreatedAt:     a.CreatedAt,
		LastLoginAt:   a.LastLoginAt,
	}
}
