package middleware

import (
	"context"
	"net/http"
)

// Identity is the caller identity supplied by the external identity
// provider at the edge. The core treats it as an opaque input and
// never validates it itself.
type Identity struct {
	UserID string
	Email  string
	Admin  bool
}

const identityKey contextKey = "identity"

// Headers populated by the identity-provider edge proxy.
const (
	UserIDHeader     = "X-User-ID"
	UserEmailHeader  = "X-User-Email"
	AdminTokenHeader = "X-Admin-Token"
)

// WithIdentity extracts the caller identity from request headers into
// the context. adminToken, when non-empty, enables the admin override
// used by the external admin console.
func WithIdentity(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := Identity{
				UserID: r.Header.Get(UserIDHeader),
				Email:  r.Header.Get(UserEmailHeader),
			}
			if adminToken != "" && r.Header.Get(AdminTokenHeader) == adminToken {
				identity.Admin = true
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the caller identity, zero-valued for
// anonymous requests.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Identity{}
}
