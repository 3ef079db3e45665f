package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/crmfront/internal/session"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// mint firma un token HS256; la firma no se verifica en el resolver.
func mint(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func accessFor(t *testing.T, userID, orgID string, exp time.Time) string {
	t.Helper()
	return mint(t, jwtv5.MapClaims{
		"user_id":     userID,
		"name":        "Ada Lovelace",
		"email":       "ada@example.com",
		"profile_pic": "https://cdn.example.com/ada.png",
		"org_id":      orgID,
		"org_name":    "Org " + orgID,
		"role":        "ADMIN",
		"iat":         exp.Add(-time.Hour).Unix(),
		"exp":         exp.Unix(),
	})
}

type fakeExchanger struct {
	mu sync.Mutex

	refreshCalls int
	switchCalls  int

	lastRefresh      string
	lastSwitchAccess string
	lastSwitchOrg    string

	refreshFn func(ctx context.Context, refresh string) (string, error)
	switchFn  func(ctx context.Context, access, orgID string) (session.SwitchResult, error)
}

func (f *fakeExchanger) RefreshToken(ctx context.Context, refresh string) (string, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.lastRefresh = refresh
	fn := f.refreshFn
	f.mu.Unlock()
	if fn == nil {
		return "", errExchange
	}
	return fn(ctx, refresh)
}

func (f *fakeExchanger) SwitchOrg(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
	f.mu.Lock()
	f.switchCalls++
	f.lastSwitchAccess = access
	f.lastSwitchOrg = orgID
	fn := f.switchFn
	f.mu.Unlock()
	if fn == nil {
		return session.SwitchResult{}, errExchange
	}
	return fn(ctx, access, orgID)
}

func (f *fakeExchanger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls + f.switchCalls
}

type recordingObserver struct {
	refresh   []bool
	switches  []bool
	decisions []session.Decision
}

func (o *recordingObserver) ObserveRefresh(ok bool)             { o.refresh = append(o.refresh, ok) }
func (o *recordingObserver) ObserveOrgSwitch(ok bool)           { o.switches = append(o.switches, ok) }
func (o *recordingObserver) ObserveDecision(d session.Decision) { o.decisions = append(o.decisions, d) }

func newResolver(t *testing.T, ex session.Exchanger, obs session.Observer) *session.Resolver {
	t.Helper()
	r, err := session.NewResolver(session.Config{
		Exchanger: ex,
		Routes:    session.DefaultRoutes(),
		Cookies:   session.CookiePolicy{Secure: true},
		Observer:  obs,
		Now:       clock,
	})
	require.NoError(t, err)
	return r
}
