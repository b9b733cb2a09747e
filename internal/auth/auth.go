// ABOUTME: Shared-token authentication resolving credentials to acting identities
// ABOUTME: Constant-time secret comparison with capability lookup per identity

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/hearth-bridge/internal/config"
)

// Identity is the acting identity a credential resolves to, together with
// the capabilities it holds. An elevated identity holds every capability.
type Identity struct {
	Name         string
	Capabilities []string
	Elevated     bool
}

// HasCapability reports whether the identity holds the named capability.
func (id *Identity) HasCapability(name string) bool {
	if id == nil {
		return false
	}
	if id.Elevated || name == "" {
		return true
	}
	for _, c := range id.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// Authenticator validates a shared bearer secret and resolves it to an
// acting identity. A configured secret is a prerequisite for any access:
// when none is configured, every credential is denied.
type Authenticator struct {
	secretHash [32]byte
	configured bool
	identity   string
	caps       map[string][]string
	logger     *slog.Logger
}

// NewAuthenticator creates an Authenticator from the auth configuration.
func NewAuthenticator(cfg config.AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{
		configured: cfg.Token != "",
		identity:   cfg.Identity,
		caps:       cfg.Capabilities,
		logger:     logger.With("component", "auth"),
	}
	if a.identity == "" {
		a.identity = config.DefaultIdentity
	}
	if a.configured {
		a.secretHash = sha256.Sum256([]byte(normalize(cfg.Token)))
	}
	return a
}

// Authenticate checks a credential against the configured secret and, on
// match, returns the acting identity. The comparison runs in constant time
// over fixed-size digests so credential length and content never leak
// through timing. Evaluated once per request; no state is carried between
// attempts.
func (a *Authenticator) Authenticate(credential string) (*Identity, bool) {
	if !a.configured {
		return nil, false
	}

	got := sha256.Sum256([]byte(normalize(credential)))
	if subtle.ConstantTimeCompare(got[:], a.secretHash[:]) != 1 {
		return nil, false
	}

	return a.resolveIdentity(), true
}

// resolveIdentity builds the Identity for the configured acting identity.
// An identity with no configured capability list is treated as elevated.
func (a *Authenticator) resolveIdentity() *Identity {
	caps, ok := a.caps[a.identity]
	if !ok {
		return &Identity{Name: a.identity, Elevated: true}
	}
	out := make([]string, len(caps))
	copy(out, caps)
	return &Identity{Name: a.identity, Capabilities: out}
}

// normalize trims surrounding whitespace from a credential before comparison.
func normalize(credential string) string {
	return strings.TrimSpace(credential)
}

// CredentialFromRequest extracts the bearer credential from a request.
// The Authorization header takes precedence over the token query parameter
// when both are present. Returns false when neither carries a credential.
func CredentialFromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			if token := strings.TrimPrefix(h, "Bearer "); token != "" {
				return token, true
			}
		}
		// A malformed Authorization header still shadows the query parameter,
		// it just never matches the secret.
		return "", true
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}

	return "", false
}
