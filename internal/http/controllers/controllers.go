// Package controllers contiene los handlers HTTP del frontend: páginas
// (login, selector de organización, dashboard), la vista JSON de sesión, el
// proxy /api/* hacia el backend y health.
package controllers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/crmfront/internal/backend"
	"github.com/dropDatabas3/crmfront/internal/cache"
	mw "github.com/dropDatabas3/crmfront/internal/http/middlewares"
	"github.com/dropDatabas3/crmfront/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// OrgDirectory lista las organizaciones del usuario (implementado por orgs.Directory).
type OrgDirectory interface {
	List(ctx context.Context, subjectID, access string) ([]backend.Org, error)
	Invalidate(ctx context.Context, subjectID string) error
}

// Deps agrupa las dependencias de los controllers.
type Deps struct {
	Directory OrgDirectory
	Cookies   session.CookiePolicy
	Routes    session.Routes
	// LoginURL es el punto de entrada del login externo ("" = sin link).
	LoginURL string
	// BackendURL es el destino del proxy /api/*.
	BackendURL *url.URL
	// Cache se reporta en /healthz (opcional).
	Cache   cache.Client
	Version string
}

// Controllers agrupa todos los handlers.
type Controllers struct {
	Pages   *PagesController
	Session *SessionController
	Proxy   *ProxyController
	Health  *HealthController
	Static  http.Handler
}

// New construye los controllers. Falla si los templates no parsean o falta la URL del backend.
func New(deps Deps) (*Controllers, error) {
	if deps.BackendURL == nil {
		return nil, errors.New("controllers: backend URL is required")
	}
	if deps.Directory == nil {
		return nil, errors.New("controllers: org directory is required")
	}
	tpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	csrf := mw.CSRFConfig{Secure: deps.Cookies.Secure, Domain: deps.Cookies.Domain}

	return &Controllers{
		Pages:   &PagesController{tpl: tpl, dir: deps.Directory, loginURL: deps.LoginURL, orgPath: deps.Routes.Location(session.RedirectOrgPicker), csrf: csrf},
		Session: &SessionController{dir: deps.Directory, cookies: deps.Cookies, routes: deps.Routes},
		Proxy:   NewProxyController(deps.BackendURL),
		Health:  &HealthController{cache: deps.Cache, version: deps.Version},
		Static:  http.StripPrefix("/static/", http.FileServer(http.FS(static))),
	}, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, 3)
	for _, page := range []string{"login", "org", "dashboard"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, err
		}
		out[page] = t
	}
	return out, nil
}
