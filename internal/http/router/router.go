// Package router arma el chi.Router del frontend.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/crmfront/internal/http/controllers"
	httperrors "github.com/dropDatabas3/crmfront/internal/http/errors"
	mw "github.com/dropDatabas3/crmfront/internal/http/middlewares"
	"github.com/dropDatabas3/crmfront/internal/metrics"
	"github.com/dropDatabas3/crmfront/internal/rate"
	"github.com/dropDatabas3/crmfront/internal/session"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers
	Resolver    *session.Resolver
	Metrics     *metrics.Metrics // opcional
	Limiter     rate.Limiter     // opcional, aplica solo a /api/*
}

// New registra todas las rutas.
//
// Login y selector de org se montan en los paths configurados en el resolver.
// /healthz, /metrics y /static no pasan por el resolver. El resto corre
// WithSession, que puede cortar con 307 antes de llegar al handler.
func New(deps Deps) http.Handler {
	c := deps.Controllers
	routes := deps.Resolver.Routes()
	loginPath := routes.Location(session.RedirectLogin)
	orgPath := routes.Location(session.RedirectOrgPicker)

	r := chi.NewRouter()

	r.Use(mw.WithRecover(), mw.WithRequestID())

	// ===========================================================================
	// Infra (sin sesión, sin logging)
	// ===========================================================================
	r.Get("/healthz", c.Health.Healthz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	r.Handle("/static/*", mw.Chain(c.Static, mw.WithCacheControl("public, max-age=3600")))

	// ===========================================================================
	// App (con sesión)
	// ===========================================================================
	r.Group(func(r chi.Router) {
		r.Use(
			mw.WithLogging(),
			mw.WithMetrics(deps.Metrics),
			mw.WithSecurityHeaders(),
			mw.WithNoStore(),
			mw.WithSession(deps.Resolver),
		)

		r.Get(loginPath, c.Pages.Login)
		r.Get("/logout", c.Session.Logout)
		r.Post("/logout", c.Session.Logout)

		r.Get(orgPath, c.Pages.OrgPicker)
		r.With(mw.WithCSRF()).Post(orgPath, c.Session.SelectOrg)
		r.Get("/session", c.Session.Show)

		r.With(mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.Limiter})).Handle("/api/*", c.Proxy)

		r.Get("/", c.Pages.Dashboard)

		// Rutas desconocidas también pasan por el resolver: un anónimo
		// recibe 307 a /login antes del 404.
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httperrors.WriteError(w, httperrors.ErrNotFound)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		})
	})

	return r
}
