package controllers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/dropDatabas3/crmfront/internal/backend"
	httperrors "github.com/dropDatabas3/crmfront/internal/http/errors"
	mw "github.com/dropDatabas3/crmfront/internal/http/middlewares"
	"github.com/dropDatabas3/crmfront/internal/observability/logger"
	"github.com/dropDatabas3/crmfront/internal/session"
)

// PagesController renderiza las páginas HTML.
type PagesController struct {
	tpl      map[string]*template.Template
	dir      OrgDirectory
	loginURL string
	orgPath  string
	csrf     mw.CSRFConfig
}

// Login maneja GET del login path (default /login). Un usuario ya autenticado va directo a "/".
func (c *PagesController) Login(w http.ResponseWriter, r *http.Request) {
	if mw.GetSession(r.Context()).Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	c.render(w, r, http.StatusOK, "login", map[string]any{
		"Title":    "Iniciar sesión",
		"LoginURL": c.loginURL,
	})
}

// OrgPicker maneja GET del org path (default /org).
func (c *PagesController) OrgPicker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc := mw.GetSession(ctx)
	if !sc.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PagesController.OrgPicker"))

	data := map[string]any{
		"Title":   "Organizaciones",
		"User":    sc.Subject,
		"CSRF":    mw.CSRFToken(w, r, c.csrf),
		"OrgPath": c.orgPath,
	}
	if sc.Organization != nil {
		data["CurrentOrg"] = sc.Organization.ID
	} else {
		data["CurrentOrg"] = ""
	}

	status := http.StatusOK
	list, err := c.dir.List(ctx, sc.Subject.ID, session.AccessTokenFrom(ctx))
	if err != nil {
		log.Warn("org directory unavailable", logger.Err(err))
		status = http.StatusBadGateway
		data["Error"] = "No pudimos obtener tus organizaciones. Intentá nuevamente."
		list = []backend.Org{}
	}
	data["Orgs"] = list

	c.render(w, r, status, "org", data)
}

// Dashboard maneja GET /. La ruta es protegida: subject y org están presentes.
func (c *PagesController) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	}
	sc := mw.GetSession(r.Context())
	c.render(w, r, http.StatusOK, "dashboard", map[string]any{
		"Title":    "Inicio",
		"User":     sc.Subject,
		"Org":      sc.Organization,
		"Role":     sc.Role,
		"Settings": sc.OrgSettings,
		"OrgPath":  c.orgPath,
	})
}

func (c *PagesController) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := c.tpl[page].ExecuteTemplate(&buf, page+".html", data); err != nil {
		logger.From(r.Context()).Error("template render failed", logger.String("page", page), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
