// ABOUTME: HTTP middleware enforcing shared-token authentication
// ABOUTME: Rejects unauthenticated requests before any JSON-RPC handling

package auth

import (
	"net/http"
)

// Middleware creates an HTTP middleware that authenticates every request
// against the shared secret and attaches the acting identity to the request
// context. Authentication failures are resolved at the HTTP layer with a 401
// so unauthenticated callers learn nothing about the protocol surface.
func Middleware(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential, _ := CredentialFromRequest(r)

			identity, ok := a.Authenticate(credential)
			if !ok {
				a.logger.Debug("rejected request", "path", r.URL.Path, "remote", r.RemoteAddr)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
