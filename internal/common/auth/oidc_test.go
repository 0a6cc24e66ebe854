// internal/common/auth/oidc_test.go
package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	token := mintToken(t, jwt.MapClaims{
		"preferred_username": "alice",
		"email":              "alice@example.org",
		"realm":              "example.org",
		"admin":              true,
		"bofh":               false,
		"activated":          true,
		"admin_domains":      []interface{}{"example.org", "partner.example"},
		"exp":                exp.Unix(),
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.org", claims.Email)
	assert.Equal(t, "example.org", claims.Realm)
	assert.True(t, claims.Admin)
	assert.False(t, claims.BOFH)
	assert.True(t, claims.Activated)
	assert.Equal(t, []string{"example.org", "partner.example"}, claims.AdminDomains)
	assert.WithinDuration(t, exp, claims.ExpiresAt, time.Second)
}

func TestParseClaimsRealmFromEmail(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"preferred_username": "bob",
		"email":              "bob@dept.example.org",
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "dept.example.org", claims.Realm)
}

func TestParseClaimsSubjectFallback(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "svc-worker"})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "svc-worker", claims.Username)
}

func TestParseClaimsStringBools(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"preferred_username": "carol",
		"admin":              "true",
		"bofh":               "1",
		"activated":          "no",
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
	assert.True(t, claims.BOFH)
	assert.False(t, claims.Activated)
}

func TestParseClaimsMalformed(t *testing.T) {
	_, err := ParseClaims("not-a-token")
	assert.Error(t, err)
}

func TestParseClaimsNoSubject(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"email": ""})

	_, err := ParseClaims(token)
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	now := time.Now()

	live := &Claims{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, live.Expired(now))

	stale := &Claims{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, stale.Expired(now))

	// Tokens without exp never expire locally.
	assert.False(t, (&Claims{}).Expired(now))
}

func TestCanAdminRealm(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		realm  string
		want   bool
	}{
		{"non-admin", Claims{}, "example.org", false},
		{"full admin", Claims{Admin: true}, "example.org", true},
		{"domain admin own realm", Claims{Admin: true, AdminDomains: []string{"example.org"}}, "example.org", true},
		{"domain admin case insensitive", Claims{Admin: true, AdminDomains: []string{"Example.ORG"}}, "example.org", true},
		{"domain admin other realm", Claims{Admin: true, AdminDomains: []string{"example.org"}}, "other.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claims.CanAdminRealm(tt.realm))
		})
	}
}

func TestIsTransientHTTPError(t *testing.T) {
	assert.True(t, isTransientHTTPError(http.StatusBadGateway))
	assert.True(t, isTransientHTTPError(http.StatusServiceUnavailable))
	assert.False(t, isTransientHTTPError(http.StatusUnauthorized))
	assert.False(t, isTransientHTTPError(http.StatusBadRequest))
}
