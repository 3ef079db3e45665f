package session

import (
	"net/http"
	"strings"
	"time"
)

// Nombres de cookies del credential store.
const (
	AccessCookie  = "jwt_access"
	RefreshCookie = "jwt_refresh"
	OrgCookie     = "org"
)

// Max-age de los cookies de credenciales.
const (
	AccessMaxAge  = 24 * time.Hour
	RefreshMaxAge = 365 * 24 * time.Hour
)

// CookieMutation describe un cambio a aplicar sobre el cookie jar del cliente.
// MaxAge < 0 borra el cookie; MaxAge == 0 lo deja como cookie de sesión.
type CookieMutation struct {
	Name     string
	Value    string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	Domain   string
}

// Deleted indica si la mutación borra el cookie.
func (m CookieMutation) Deleted() bool { return m.MaxAge < 0 }

// Cookie construye el *http.Cookie equivalente.
func (m CookieMutation) Cookie() *http.Cookie {
	c := &http.Cookie{
		Name:     m.Name,
		Value:    m.Value,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   m.MaxAge,
		HttpOnly: m.HTTPOnly,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.Deleted() {
		c.Value = ""
		c.Expires = time.Unix(0, 0)
	}
	return c
}

// Apply escribe las mutaciones como Set-Cookie en la respuesta.
func Apply(w http.ResponseWriter, muts []CookieMutation) {
	if w == nil {
		return
	}
	for _, m := range muts {
		http.SetCookie(w, m.Cookie())
	}
}

// CookiePolicy fija los flags comunes de los cookies que escribe el frontend.
// Secure se activa en producción.
type CookiePolicy struct {
	Secure bool
	Domain string
}

func (p CookiePolicy) base(name string) CookieMutation {
	return CookieMutation{
		Name: name,
		// "org" lo escribe también la UI de selección, no es httpOnly
		HTTPOnly: name != OrgCookie,
		Secure:   p.Secure,
		Domain:   strings.TrimSpace(p.Domain),
	}
}

// SetAccess escribe jwt_access con max-age de 1 día.
func (p CookiePolicy) SetAccess(token string) CookieMutation {
	m := p.base(AccessCookie)
	m.Value = token
	m.MaxAge = int(AccessMaxAge / time.Second)
	return m
}

// SetRefresh escribe jwt_refresh con max-age de 1 año.
func (p CookiePolicy) SetRefresh(token string) CookieMutation {
	m := p.base(RefreshCookie)
	m.Value = token
	m.MaxAge = int(RefreshMaxAge / time.Second)
	return m
}

// SetOrg escribe el org selector como cookie de sesión.
func (p CookiePolicy) SetOrg(orgID string) CookieMutation {
	m := p.base(OrgCookie)
	m.Value = orgID
	return m
}

// Clear borra el cookie indicado.
func (p CookiePolicy) Clear(name string) CookieMutation {
	m := p.base(name)
	m.MaxAge = -1
	return m
}

// ClearAll borra access, refresh y org (logout / refresh fallido).
func (p CookiePolicy) ClearAll() []CookieMutation {
	return []CookieMutation{
		p.Clear(AccessCookie),
		p.Clear(RefreshCookie),
		p.Clear(OrgCookie),
	}
}

// Input son los valores del cookie jar relevantes para resolver el request.
type Input struct {
	AccessToken  string
	RefreshToken string
	OrgID        string
	Path         string
}

// InputFromRequest lee los tres cookies y el path del request.
func InputFromRequest(r *http.Request) Input {
	in := Input{}
	if r == nil {
		return in
	}
	in.AccessToken = cookieValue(r, AccessCookie)
	in.RefreshToken = cookieValue(r, RefreshCookie)
	in.OrgID = cookieValue(r, OrgCookie)
	if r.URL != nil {
		in.Path = r.URL.Path
	}
	return in
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil || c == nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
