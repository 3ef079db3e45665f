package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/crmfront/internal/session"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errExchange = errors.New("backend said no")

func TestResolve_NoCookies_ProtectedPath_RedirectsLogin(t *testing.T) {
	ex := &fakeExchanger{}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{Path: "/accounts"})
	require.NoError(t, err)

	assert.Equal(t, session.RedirectLogin, out.Decision)
	assert.Equal(t, "RedirectLogin", out.Decision.Terminal())
	assert.Equal(t, "/login", out.Location)
	assert.Equal(t, 0, ex.calls())
	assert.Empty(t, out.Mutations)
	assert.Nil(t, out.Context.Subject)
}

func TestResolve_PublicRouteBypass(t *testing.T) {
	ex := &fakeExchanger{}
	r := newResolver(t, ex, nil)

	for _, p := range []string{"/login", "/logout", "/bounce", "/static/app.css"} {
		out, err := r.Resolve(context.Background(), session.Input{Path: p})
		require.NoError(t, err)
		assert.Equal(t, session.Proceed, out.Decision, p)
		assert.Empty(t, out.Location, p)
	}
	assert.Equal(t, 0, ex.calls())
}

func TestResolve_OrgMatches_NoBackendCall(t *testing.T) {
	ex := &fakeExchanger{}
	obs := &recordingObserver{}
	r := newResolver(t, ex, obs)

	tok := accessFor(t, "u-1", "A", fixedNow.Add(time.Hour))
	out, err := r.Resolve(context.Background(), session.Input{AccessToken: tok, OrgID: "A", Path: "/accounts"})
	require.NoError(t, err)

	assert.Equal(t, 0, ex.calls())
	assert.Empty(t, out.Mutations)
	assert.Equal(t, session.Proceed, out.Decision)
	assert.Equal(t, session.CredentialValid, out.CredentialState)
	assert.Equal(t, session.OrgMatched, out.OrgState)
	assert.Equal(t, tok, out.AccessToken)

	require.NotNil(t, out.Context.Subject)
	assert.Equal(t, session.Subject{
		ID:           "u-1",
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		ProfilePhoto: "https://cdn.example.com/ada.png",
	}, *out.Context.Subject)
	require.NotNil(t, out.Context.Organization)
	assert.Equal(t, session.Organization{ID: "A", Name: "Org A"}, *out.Context.Organization)
	assert.Equal(t, "ADMIN", out.Context.Role)
	assert.Equal(t, session.DefaultOrgSettings(), out.Context.OrgSettings)

	assert.Empty(t, obs.refresh)
	assert.Empty(t, obs.switches)
	assert.Equal(t, []session.Decision{session.Proceed}, obs.decisions)
}

func TestResolve_DecodeTwice_SameContext(t *testing.T) {
	r := newResolver(t, &fakeExchanger{}, nil)
	in := session.Input{AccessToken: accessFor(t, "u-1", "A", fixedNow.Add(time.Hour)), OrgID: "A", Path: "/"}

	a, err := r.Resolve(context.Background(), in)
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, a.Context, b.Context)
}

// Escenario: {org_id: A, exp: now-10s}, refresh válido, org cookie A.
func TestResolve_ExpiredCredential_RefreshesOnce_NoSwitch(t *testing.T) {
	fresh := accessFor(t, "u-1", "A", fixedNow.Add(24*time.Hour))
	ex := &fakeExchanger{
		refreshFn: func(ctx context.Context, refresh string) (string, error) { return fresh, nil },
	}
	obs := &recordingObserver{}
	r := newResolver(t, ex, obs)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken:  accessFor(t, "u-1", "A", fixedNow.Add(-10*time.Second)),
		RefreshToken: "refresh-1",
		OrgID:        "A",
		Path:         "/accounts",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, ex.refreshCalls)
	assert.Equal(t, 0, ex.switchCalls)
	assert.Equal(t, "refresh-1", ex.lastRefresh)

	assert.Equal(t, "Resolved", out.Decision.Terminal())
	assert.Equal(t, session.CredentialRefreshed, out.CredentialState)
	require.NotNil(t, out.Context.Organization)
	assert.Equal(t, "A", out.Context.Organization.ID)
	require.NotNil(t, out.Context.Subject)
	assert.Equal(t, "u-1", out.Context.Subject.ID)
	assert.Equal(t, fresh, out.AccessToken)

	require.Len(t, out.Mutations, 1)
	m := out.Mutations[0]
	assert.Equal(t, session.AccessCookie, m.Name)
	assert.Equal(t, fresh, m.Value)
	assert.Equal(t, 86400, m.MaxAge)
	assert.True(t, m.HTTPOnly)
	assert.True(t, m.Secure)

	assert.Equal(t, []bool{true}, obs.refresh)
}

func TestResolve_MalformedCredential_TriggersRefresh(t *testing.T) {
	fresh := accessFor(t, "u-1", "A", fixedNow.Add(time.Hour))
	ex := &fakeExchanger{
		refreshFn: func(ctx context.Context, refresh string) (string, error) { return fresh, nil },
	}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken:  "garbage",
		RefreshToken: "refresh-1",
		Path:         "/org",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ex.refreshCalls)
	assert.Equal(t, session.CredentialRefreshed, out.CredentialState)
	assert.Equal(t, session.OrgNoSelector, out.OrgState)
	assert.Equal(t, session.Proceed, out.Decision)
}

func TestResolve_RefreshFailure_ClearsAllCookies(t *testing.T) {
	ex := &fakeExchanger{
		refreshFn: func(ctx context.Context, refresh string) (string, error) { return "", errExchange },
	}
	obs := &recordingObserver{}
	r := newResolver(t, ex, obs)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken:  accessFor(t, "u-1", "A", fixedNow.Add(-time.Minute)),
		RefreshToken: "refresh-1",
		OrgID:        "A",
		Path:         "/accounts",
	})
	require.NoError(t, err)

	assert.Equal(t, session.RedirectLogin, out.Decision)
	assert.Equal(t, session.CredentialRefreshFailed, out.CredentialState)
	assert.Equal(t, session.OrgSkipped, out.OrgState)
	assert.Nil(t, out.Context.Subject)
	assert.Empty(t, out.AccessToken)
	assert.Equal(t, 0, ex.switchCalls)

	for _, name := range []string{session.AccessCookie, session.RefreshCookie, session.OrgCookie} {
		m, ok := out.Mutation(name)
		require.True(t, ok, name)
		assert.True(t, m.Deleted(), name)
	}
	assert.Equal(t, []bool{false}, obs.refresh)
}

func TestResolve_RefreshReturnsUnusableCredential_IsFailure(t *testing.T) {
	ex := &fakeExchanger{
		refreshFn: func(ctx context.Context, refresh string) (string, error) {
			return accessFor(t, "u-1", "A", fixedNow.Add(-time.Second)), nil
		},
	}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken:  accessFor(t, "u-1", "A", fixedNow.Add(-time.Minute)),
		RefreshToken: "refresh-1",
		Path:         "/accounts",
	})
	require.NoError(t, err)
	assert.Equal(t, session.CredentialRefreshFailed, out.CredentialState)
	assert.Len(t, out.Mutations, 3)
	assert.Equal(t, session.RedirectLogin, out.Decision)
}

func TestResolve_ExpiredWithoutRefresh_NoCalls(t *testing.T) {
	ex := &fakeExchanger{}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken: accessFor(t, "u-1", "A", fixedNow.Add(-time.Minute)),
		OrgID:       "A",
		Path:        "/accounts",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, ex.calls())
	assert.Empty(t, out.Mutations)
	assert.Equal(t, session.CredentialExpired, out.CredentialState)
	assert.Equal(t, session.RedirectLogin, out.Decision)
}

func TestResolve_AbsentAccess_DoesNotRefresh(t *testing.T) {
	ex := &fakeExchanger{}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{RefreshToken: "refresh-1", Path: "/accounts"})
	require.NoError(t, err)
	assert.Equal(t, 0, ex.calls())
	assert.Equal(t, session.CredentialAbsent, out.CredentialState)
	assert.Equal(t, session.RedirectLogin, out.Decision)
}

// Escenario: credential válido con org A, cookie B, switch devuelve current_org B.
func TestResolve_OrgSwitch_ReconcilesMismatch(t *testing.T) {
	current := accessFor(t, "u-1", "A", fixedNow.Add(time.Hour))
	switched := mint(t, jwtv5.MapClaims{
		"user_id":  "u-1",
		"org_id":   "B",
		"org_name": "Beta",
		"role":     "USER",
		"exp":      fixedNow.Add(time.Hour).Unix(),
		"org_settings": map[string]any{
			"default_currency": "INR",
			"currency_symbol":  "₹",
		},
	})
	ex := &fakeExchanger{
		switchFn: func(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
			return session.SwitchResult{
				AccessToken:  switched,
				RefreshToken: "refresh-B",
				CurrentOrg:   session.Organization{ID: "B", Name: "Beta Inc"},
			}, nil
		},
	}
	obs := &recordingObserver{}
	r := newResolver(t, ex, obs)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken:  current,
		RefreshToken: "refresh-A",
		OrgID:        "B",
		Path:         "/accounts",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, ex.calls())
	assert.Equal(t, current, ex.lastSwitchAccess)
	assert.Equal(t, "B", ex.lastSwitchOrg)

	assert.Equal(t, session.Proceed, out.Decision)
	assert.Equal(t, session.OrgSwitched, out.OrgState)
	require.NotNil(t, out.Context.Organization)
	assert.Equal(t, "B", out.Context.Organization.ID)
	assert.Equal(t, "Beta Inc", out.Context.Organization.Name)
	assert.Equal(t, "USER", out.Context.Role)
	assert.Equal(t, "INR", out.Context.OrgSettings.Currency)
	assert.Equal(t, "₹", out.Context.OrgSettings.Symbol)
	assert.Nil(t, out.Context.OrgSettings.Country)
	assert.Equal(t, switched, out.AccessToken)

	acc, ok := out.Mutation(session.AccessCookie)
	require.True(t, ok)
	assert.Equal(t, switched, acc.Value)
	assert.Equal(t, 86400, acc.MaxAge)

	ref, ok := out.Mutation(session.RefreshCookie)
	require.True(t, ok)
	assert.Equal(t, "refresh-B", ref.Value)
	assert.Equal(t, 365*86400, ref.MaxAge)

	_, ok = out.Mutation(session.OrgCookie)
	assert.False(t, ok, "org cookie already matches the switched org")
	assert.Equal(t, []bool{true}, obs.switches)
}

func TestResolve_OrgSwitch_UndecodableCredential_DefaultSettings(t *testing.T) {
	ex := &fakeExchanger{
		switchFn: func(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
			return session.SwitchResult{AccessToken: "opaque", RefreshToken: "r", CurrentOrg: session.Organization{ID: "B", Name: "Beta"}}, nil
		},
	}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken: accessFor(t, "u-1", "A", fixedNow.Add(time.Hour)),
		OrgID:       "B",
		Path:        "/accounts",
	})
	require.NoError(t, err)
	assert.Equal(t, session.OrgSwitched, out.OrgState)
	assert.Equal(t, session.DefaultOrgSettings(), out.Context.OrgSettings)
	assert.Empty(t, out.Context.Role)
}

func TestResolve_OrgSwitch_BackendPicksAnotherOrg_RealignsSelector(t *testing.T) {
	ex := &fakeExchanger{
		switchFn: func(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
			return session.SwitchResult{AccessToken: "a", RefreshToken: "r", CurrentOrg: session.Organization{ID: "C", Name: "Gamma"}}, nil
		},
	}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken: accessFor(t, "u-1", "A", fixedNow.Add(time.Hour)),
		OrgID:       "B",
		Path:        "/accounts",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Context.Organization)
	assert.Equal(t, "C", out.Context.Organization.ID)

	org, ok := out.Mutation(session.OrgCookie)
	require.True(t, ok)
	assert.Equal(t, "C", org.Value)
	assert.False(t, org.HTTPOnly)
}

func TestResolve_OrgSwitchFailure_ClearsOnlyOrgCookie(t *testing.T) {
	ex := &fakeExchanger{
		switchFn: func(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
			return session.SwitchResult{}, errExchange
		},
	}
	obs := &recordingObserver{}
	r := newResolver(t, ex, obs)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken:  accessFor(t, "u-1", "A", fixedNow.Add(time.Hour)),
		RefreshToken: "refresh-A",
		OrgID:        "B",
		Path:         "/accounts",
	})
	require.NoError(t, err)

	assert.Equal(t, session.RedirectOrgPicker, out.Decision)
	assert.Equal(t, "/org", out.Location)
	assert.Equal(t, session.OrgSwitchFailed, out.OrgState)
	assert.Nil(t, out.Context.Organization)
	require.NotNil(t, out.Context.Subject)

	require.Len(t, out.Mutations, 1)
	assert.Equal(t, session.OrgCookie, out.Mutations[0].Name)
	assert.True(t, out.Mutations[0].Deleted())

	_, ok := out.Mutation(session.AccessCookie)
	assert.False(t, ok)
	_, ok = out.Mutation(session.RefreshCookie)
	assert.False(t, ok)
	assert.Equal(t, []bool{false}, obs.switches)
}

func TestResolve_SwitchWithoutCredentials_IsFailure(t *testing.T) {
	ex := &fakeExchanger{
		switchFn: func(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
			return session.SwitchResult{CurrentOrg: session.Organization{ID: "B"}}, nil
		},
	}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken: accessFor(t, "u-1", "A", fixedNow.Add(time.Hour)),
		OrgID:       "B",
		Path:        "/accounts",
	})
	require.NoError(t, err)
	assert.Equal(t, session.OrgSwitchFailed, out.OrgState)
	assert.Equal(t, session.RedirectOrgPicker, out.Decision)
}

func TestResolve_RefreshThenSwitch_UsesRefreshedCredential(t *testing.T) {
	fresh := accessFor(t, "u-1", "A", fixedNow.Add(time.Hour))
	var order []string
	ex := &fakeExchanger{}
	ex.refreshFn = func(ctx context.Context, refresh string) (string, error) {
		order = append(order, "refresh")
		return fresh, nil
	}
	ex.switchFn = func(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
		order = append(order, "switch")
		return session.SwitchResult{AccessToken: "acc-B", RefreshToken: "ref-B", CurrentOrg: session.Organization{ID: "B", Name: "Beta"}}, nil
	}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(context.Background(), session.Input{
		AccessToken:  accessFor(t, "u-1", "A", fixedNow.Add(-time.Minute)),
		RefreshToken: "refresh-A",
		OrgID:        "B",
		Path:         "/accounts",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"refresh", "switch"}, order)
	assert.Equal(t, fresh, ex.lastSwitchAccess)
	assert.Equal(t, session.Proceed, out.Decision)

	require.Len(t, out.Mutations, 2)
	acc, ok := out.Mutation(session.AccessCookie)
	require.True(t, ok)
	assert.Equal(t, "acc-B", acc.Value, "the switched credential wins over the refreshed one")
}

func TestResolve_AuthOnlyRoute(t *testing.T) {
	r := newResolver(t, &fakeExchanger{}, nil)
	tok := accessFor(t, "u-1", "A", fixedNow.Add(time.Hour))

	out, err := r.Resolve(context.Background(), session.Input{AccessToken: tok, Path: "/org"})
	require.NoError(t, err)
	assert.Equal(t, session.Proceed, out.Decision)
	assert.Equal(t, session.OrgNoSelector, out.OrgState)
	assert.Nil(t, out.Context.Organization)

	out, err = r.Resolve(context.Background(), session.Input{AccessToken: tok, Path: "/accounts"})
	require.NoError(t, err)
	assert.Equal(t, session.RedirectOrgPicker, out.Decision)

	out, err = r.Resolve(context.Background(), session.Input{Path: "/org"})
	require.NoError(t, err)
	assert.Equal(t, session.RedirectLogin, out.Decision)
}

func TestResolve_CancelledDuringRefresh_CommitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ex := &fakeExchanger{
		refreshFn: func(ctx context.Context, refresh string) (string, error) {
			cancel()
			return "", ctx.Err()
		},
	}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(ctx, session.Input{
		AccessToken:  accessFor(t, "u-1", "A", fixedNow.Add(-time.Minute)),
		RefreshToken: "refresh-1",
		OrgID:        "A",
		Path:         "/accounts",
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.Mutations)
	assert.Equal(t, session.RedirectLogin, out.Decision)
}

func TestResolve_CancelledDuringSwitch_CommitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ex := &fakeExchanger{
		switchFn: func(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
			cancel()
			return session.SwitchResult{AccessToken: "late", RefreshToken: "late"}, nil
		},
	}
	r := newResolver(t, ex, nil)

	out, err := r.Resolve(ctx, session.Input{
		AccessToken: accessFor(t, "u-1", "A", fixedNow.Add(time.Hour)),
		OrgID:       "B",
		Path:        "/login",
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.Mutations)
	assert.Equal(t, session.Proceed, out.Decision, "public path stays reachable")
}

func TestNewResolver_RequiresExchanger(t *testing.T) {
	_, err := session.NewResolver(session.Config{})
	require.Error(t, err)
}

func TestNewResolver_ZeroRoutesUseDefaults(t *testing.T) {
	r, err := session.NewResolver(session.Config{Exchanger: &fakeExchanger{}, Now: clock})
	require.NoError(t, err)

	out, err := r.Resolve(context.Background(), session.Input{Path: "/login"})
	require.NoError(t, err)
	assert.Equal(t, session.Proceed, out.Decision)
}
