// ABOUTME: Tests for shared-token authentication and credential extraction
// ABOUTME: Covers deny-without-secret, normalization, and header/query precedence

package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hearth-bridge/internal/config"
)

func TestAuthenticate_NoSecretConfigured(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{}, nil)

	for _, cred := range []string{"", "anything", "admin"} {
		id, ok := a.Authenticate(cred)
		assert.False(t, ok, "credential %q should be denied with no secret configured", cred)
		assert.Nil(t, id)
	}
}

func TestAuthenticate_MatchAndMismatch(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Token: "hunter2"}, nil)

	id, ok := a.Authenticate("hunter2")
	require.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, config.DefaultIdentity, id.Name)

	tests := []string{"", "hunter", "hunter22", "HUNTER2", "hunter2x"}
	for _, cred := range tests {
		_, ok := a.Authenticate(cred)
		assert.False(t, ok, "credential %q should be denied", cred)
	}
}

func TestAuthenticate_NormalizesWhitespace(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Token: "hunter2"}, nil)

	_, ok := a.Authenticate("  hunter2\n")
	assert.True(t, ok, "surrounding whitespace should be trimmed before comparison")
}

func TestAuthenticate_ConfiguredIdentity(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{
		Token:    "secret",
		Identity: "storefront",
		Capabilities: map[string][]string{
			"storefront": {"catalog", "orders"},
		},
	}, nil)

	id, ok := a.Authenticate("secret")
	require.True(t, ok)
	assert.Equal(t, "storefront", id.Name)
	assert.False(t, id.Elevated)
	assert.True(t, id.HasCapability("catalog"))
	assert.True(t, id.HasCapability("orders"))
	assert.False(t, id.HasCapability("manage"))
}

func TestAuthenticate_DefaultIdentityIsElevated(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Token: "secret"}, nil)

	id, ok := a.Authenticate("secret")
	require.True(t, ok)
	assert.True(t, id.Elevated)
	assert.True(t, id.HasCapability("anything-at-all"))
}

func TestHasCapability_EmptyRequirementAlwaysHeld(t *testing.T) {
	id := &Identity{Name: "limited", Capabilities: []string{"catalog"}}
	assert.True(t, id.HasCapability(""))

	var nilID *Identity
	assert.False(t, nilID.HasCapability("catalog"))
}

func TestCredentialFromRequest(t *testing.T) {
	t.Run("header only", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/messages", nil)
		r.Header.Set("Authorization", "Bearer abc")
		cred, ok := CredentialFromRequest(r)
		assert.True(t, ok)
		assert.Equal(t, "abc", cred)
	})

	t.Run("query only", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/messages?token=xyz", nil)
		cred, ok := CredentialFromRequest(r)
		assert.True(t, ok)
		assert.Equal(t, "xyz", cred)
	})

	t.Run("header takes precedence over query", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/messages?token=from-query", nil)
		r.Header.Set("Authorization", "Bearer from-header")
		cred, _ := CredentialFromRequest(r)
		assert.Equal(t, "from-header", cred)
	})

	t.Run("malformed header shadows query", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/messages?token=from-query", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		cred, _ := CredentialFromRequest(r)
		assert.Equal(t, "", cred)
	})

	t.Run("no credential", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/messages", nil)
		_, ok := CredentialFromRequest(r)
		assert.False(t, ok)
	})
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)

	// Burst of 2 allowed, third denied
	assert.True(t, limiter.Allow("caller"))
	assert.True(t, limiter.Allow("caller"))
	assert.False(t, limiter.Allow("caller"))

	// Different key has its own bucket
	assert.True(t, limiter.Allow("other"))

	limiter.Reset()
	assert.True(t, limiter.Allow("caller"))
}
