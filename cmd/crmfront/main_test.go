package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mint(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestDecode_Valid(t *testing.T) {
	tok := mint(t, jwtv5.MapClaims{
		"user_id":  42,
		"email":    "ada@example.com",
		"org_id":   "A",
		"org_name": "Acme",
		"role":     "ADMIN",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	out, err := run(t, "decode", tok)
	require.NoError(t, err)

	var got decodeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "valid", got.State)
	require.NotNil(t, got.ExpiresAt)
	require.NotNil(t, got.Context.Subject)
	assert.Equal(t, "42", got.Context.Subject.ID)
	require.NotNil(t, got.Context.Organization)
	assert.Equal(t, "Acme", got.Context.Organization.Name)
}

func TestDecode_Expired(t *testing.T) {
	tok := mint(t, jwtv5.MapClaims{"user_id": "u", "exp": time.Now().Add(-time.Minute).Unix()})
	out, err := run(t, "decode", tok)
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "expired"`)
}

func TestDecode_Malformed(t *testing.T) {
	out, err := run(t, "decode", "not-a-jwt")
	require.Error(t, err)
	assert.Contains(t, out, `"state": "malformed"`)
	assert.Contains(t, out, `"user": null`)
}

func TestRoutes_ClassifiesPaths(t *testing.T) {
	t.Setenv("ROUTES_PUBLIC", "/login,/docs")
	t.Setenv("ROUTES_AUTH_ONLY", "/org")

	out, err := run(t, "routes", "/docs/intro", "/org", "/deals")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^/docs/intro\s+public\s+anonymous=proceed`, lines[0])
	assert.Regexp(t, `^/org\s+auth_only\s+anonymous=redirect_login`, lines[1])
	assert.Regexp(t, `^/deals\s+protected\s+anonymous=redirect_login`, lines[2])
}

func TestRoutes_ListsAllowLists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  public: [\"/login\", \"/help\"]\n  auth_only: [\"/org\"]\n"), 0o600))

	out, err := run(t, "--config", path, "routes")
	require.NoError(t, err)
	assert.Regexp(t, `login\s+/login`, out)
	assert.Regexp(t, `org picker\s+/org`, out)
	assert.Regexp(t, `public\s+/help`, out)
	assert.Regexp(t, `auth_only\s+/org`, out)
}

func TestRoutes_InvalidConfig(t *testing.T) {
	t.Setenv("CACHE_KIND", "memcached")
	_, err := run(t, "routes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.kind")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "crmfront dev"))
}
