package httpapi

import (
	"errors"
	"net/http"

	"squadhub.org/internal/audit"
	"squadhub.org/internal/identity"
)

type signupRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	ContactNumber string `json:"contactNumber"`
	Role          string `json:"role"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// apiResponse is the envelope of the credential endpoints.
type apiResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.identity.Signup(r.Context(), identity.SignupInput{
		Email:         req.Email,
		Password:      req.Password,
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		Role:          req.Role,
	})
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrEmailTaken):
		writeJSON(w, http.StatusBadRequest, apiResponse{
			Message: "User with email " + identity.NormalizeEmail(req.Email) + " already exists",
			Success: false,
		})
		return
	case errors.Is(err, identity.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid signup input")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"email":      res.Account.Email,
		"email_sent": res.EmailSent,
	})
	msg := "User registered successfully. Please verify your email."
	if !res.EmailSent {
		msg = "User registered successfully, but the verification email could not be sent."
	}
	writeJSON(w, http.StatusOK, struct {
		apiResponse
		EmailSent bool `json:"emailSent"`
	}{
		apiResponse: apiResponse{Message: msg, Success: true},
		EmailSent:   res.EmailSent,
	})
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, account, err := a.identity.SignIn(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiResponse{Message: "User not found", Success: false})
		return
	case errors.Is(err, identity.ErrUnverified):
		writeJSON(w, http.StatusUnauthorized, apiResponse{Message: "Please verify your email first", Success: false})
		return
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, apiResponse{Message: "Invalid credentials", Success: false})
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signin", map[string]any{
		"email": account.Email,
		"role":  string(account.Role),
	})
	// The token travels in the response header; the body stays an envelope.
	w.Header().Set(authHeader, bearerScheme+token)
	writeJSON(w, http.StatusOK, apiResponse{Message: "Login successful", Success: true})
}

func (a *API) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	token := r.URL.Query().Get("token")

	account, err := a.identity.VerifyEmail(r.Context(), token)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrTokenExpired):
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "Verification link has expired", Success: false})
		return
	case errors.Is(err, identity.ErrNotFound):
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "Invalid verification link", Success: false})
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.verify", map[string]any{"email": account.Email})
	writeJSON(w, http.StatusOK, apiResponse{Message: "Email verified successfully", Success: true})
}

func (a *API) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	email := r.URL.Query().Get("userEmail")

	err := a.identity.RequestPasswordReset(r.Context(), email)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiResponse{Message: "User not found", Success: false})
		return
	case errors.Is(err, identity.ErrDispatchFailed):
		writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Could not send reset email", Success: false})
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.reset.requested", map[string]any{
		"email": identity.NormalizeEmail(email),
	})
	writeJSON(w, http.StatusOK, apiResponse{Message: "OTP sent to your email", Success: true})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	q := r.URL.Query()
	email := q.Get("userEmail")
	otp := q.Get("otp")
	newPassword := q.Get("newPassword")

	err := a.identity.CompletePasswordReset(r.Context(), email, otp, newPassword)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiResponse{Message: "Invalid or expired OTP", Success: false})
		return
	case errors.Is(err, identity.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "new password is required")
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.reset.completed", map[string]any{
		"email": identity.NormalizeEmail(email),
	})
	writeJSON(w, http.StatusOK, apiResponse{Message: "Password reset successfully", Success: true})
}
