package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"squadhub.org/internal/achievement"
	"squadhub.org/internal/audit"
	"squadhub.org/internal/identity"
)

type awardRequest struct {
	AchievedBy  string `json:"achievedBy"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateAchievementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type achievementResponse struct {
	ID          string    `json:"id"`
	AchievedBy  string    `json:"achievedBy"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AwardedOn   time.Time `json:"awardedOn"`
}

func (a *API) handleAchievements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAchievements(w, r)
	case http.MethodPost:
		a.awardAchievement(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleAchievementResource routes /api/achievements/{id}. Reads are open to
// any signed-in account; changes are coach-only.
func (a *API) handleAchievementResource(w http.ResponseWriter, r *http.Request) {
	achID := strings.TrimPrefix(r.URL.Path, "/api/achievements/")
	if achID == "" || strings.Contains(achID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getAchievement(w, r, achID)
	case http.MethodPut:
		a.updateAchievement(w, r, achID)
	case http.MethodDelete:
		a.deleteAchievement(w, r, achID)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getAchievement(w http.ResponseWriter, r *http.Request, achID string) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	it, err := a.achievements.Get(r.Context(), achID)
	switch {
	case err == nil:
	case errors.Is(err, achievement.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "achievement not found")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, achievementResponse{
		ID: it.ID, AchievedBy: it.AchievedBy, Title: it.Title,
		Description: it.Description, AwardedOn: it.AwardedOn,
	})
}

func (a *API) updateAchievement(w http.ResponseWriter, r *http.Request, achID string) {
	if _, ok := requireRole(w, r, identity.RoleCoach); !ok {
		return
	}
	var req updateAchievementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := a.achievements.Update(r.Context(), achID, req.Title, req.Description)
	switch {
	case err == nil:
	case errors.Is(err, achievement.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	case errors.Is(err, achievement.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "achievement not found")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, achievementResponse{
		ID: it.ID, AchievedBy: it.AchievedBy, Title: it.Title,
		Description: it.Description, AwardedOn: it.AwardedOn,
	})
}

func (a *API) deleteAchievement(w http.ResponseWriter, r *http.Request, achID string) {
	if _, ok := requireRole(w, r, identity.RoleCoach); !ok {
		return
	}
	err := a.achievements.Delete(r.Context(), achID)
	switch {
	case err == nil:
	case errors.Is(err, achievement.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "achievement not found")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "achievement.deleted", map[string]any{
		"achievement_id": achID,
	})
	writeJSON(w, http.StatusOK, apiResponse{Message: "Achievement deleted", Success: true})
}

// listAchievements returns the achievements of the given account, defaulting
// to the caller's own.
func (a *API) listAchievements(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	email := identity.NormalizeEmail(r.URL.Query().Get("userEmail"))
	if email == "" {
		email = id.Email
	}

	items, err := a.achievements.ListByAccount(r.Context(), email)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]achievementResponse, 0, len(items))
	for _, it := range items {
		out = append(out, achievementResponse{
			ID: it.ID, AchievedBy: it.AchievedBy, Title: it.Title,
			Description: it.Description, AwardedOn: it.AwardedOn,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) awardAchievement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, identity.RoleCoach); !ok {
		return
	}
	var req awardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := a.achievements.Award(r.Context(),
		identity.NormalizeEmail(req.AchievedBy), req.Title, req.Description)
	switch {
	case err == nil:
	case errors.Is(err, achievement.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "recipient and title are required")
		return
	case errors.Is(err, achievement.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "recipient not found")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "achievement.awarded", map[string]any{
		"achievement_id": it.ID,
		"achieved_by":    it.AchievedBy,
	})
	writeJSON(w, http.StatusCreated, achievementResponse{
		ID: it.ID, AchievedBy: it.AchievedBy, Title: it.Title,
		Description: it.Description, AwardedOn: it.AwardedOn,
	})
}
