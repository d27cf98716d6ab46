package identity

import "context"

// Identity is the resolved (subject, role) pair attached to a request after
// the authentication gate validates a bearer token. It travels with the
// request context, never through ambient global state.
type Identity struct {
	Email string
	Role  Role
}

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext extracts the authenticated identity from the context. The
// second return is false for anonymous requests.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || id.Email == "" {
		return Identity{}, false
	}
	return id, true
}
