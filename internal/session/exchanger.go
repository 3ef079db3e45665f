package session

import "context"

// SwitchResult es la respuesta del org-switch exchange.
type SwitchResult struct {
	AccessToken  string
	RefreshToken string
	CurrentOrg   Organization
}

// Exchanger son las dos llamadas de auth al backend que consume el resolver.
// Cualquier error (red, timeout, non-2xx) se trata como fallo del exchange.
type Exchanger interface {
	// RefreshToken canjea el refresh token por un access token nuevo.
	RefreshToken(ctx context.Context, refresh string) (string, error)
	// SwitchOrg canjea el access token vigente por credenciales de orgID.
	SwitchOrg(ctx context.Context, access, orgID string) (SwitchResult, error)
}

// Observer recibe los eventos del resolver (métricas).
type Observer interface {
	ObserveRefresh(ok bool)
	ObserveOrgSwitch(ok bool)
	ObserveDecision(d Decision)
}

type nopObserver struct{}

func (nopObserver) ObserveRefresh(bool)      {}
func (nopObserver) ObserveOrgSwitch(bool)    {}
func (nopObserver) ObserveDecision(Decision) {}
