package httpapi

import (
	"net/http"
	"strings"

	"squadhub.org/internal/identity"
	"squadhub.org/internal/obs"
)

const (
	authHeader   = "Authorization"
	bearerScheme = "Bearer "
)

// withAuth is the authentication gate. It runs exactly once per request:
//
//   - no Authorization header, or a non-bearer scheme: the request proceeds
//     with no identity attached; handlers own anonymous rejection.
//   - a bearer token is present: it is validated and its subject resolved
//     against the account store. Any failure short-circuits with 401 and
//     never attaches an identity.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get(authHeader))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerScheme)) {
			obs.CountAuthOutcome("anonymous")
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(header[len(bearerScheme):])
		id, err := a.issuer.Validate(token)
		if err != nil {
			obs.CountAuthOutcome("rejected")
			w.Header().Set("WWW-Authenticate", `Bearer realm="squadhub", error="invalid_token"`)
			writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		// The subject must still resolve to a live account.
		account, err := a.accounts.FindByEmail(r.Context(), id.Email)
		if err != nil {
			obs.CountAuthOutcome("rejected")
			w.Header().Set("WWW-Authenticate", `Bearer realm="squadhub", error="invalid_token"`)
			writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		obs.CountAuthOutcome("authenticated")
		ctx := identity.ContextWithIdentity(r.Context(), identity.Identity{
			Email: account.Email,
			Role:  account.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
