package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/crmfront/internal/http/errors"
	mw "github.com/dropDatabas3/crmfront/internal/http/middlewares"
	"github.com/dropDatabas3/crmfront/internal/observability/logger"
	"github.com/dropDatabas3/crmfront/internal/session"
)

// SessionController expone la sesión resuelta y las acciones sobre cookies
// (logout, selección de organización).
type SessionController struct {
	dir     OrgDirectory
	cookies session.CookiePolicy
	routes  session.Routes
}

// Show maneja GET /session: el Session Context como JSON.
func (c *SessionController) Show(w http.ResponseWriter, r *http.Request) {
	sc := mw.GetSession(r.Context())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(sc)
}

// Logout maneja GET|POST /logout: borra las tres cookies y vuelve a /login.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if uid := mw.GetUserID(ctx); uid != "" {
		if err := c.dir.Invalidate(ctx, uid); err != nil {
			logger.From(ctx).Warn("org directory invalidate failed", logger.Err(err))
		}
	}
	session.Apply(w, c.cookies.ClearAll())
	http.Redirect(w, r, c.routes.Location(session.RedirectLogin), http.StatusSeeOther)
}

// SelectOrg maneja POST /org: fija el cookie "org". El switch de credenciales
// lo hace el resolver en el siguiente request.
func (c *SessionController) SelectOrg(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc := mw.GetSession(ctx)
	if !sc.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.SelectOrg"))

	orgID := strings.TrimSpace(r.PostFormValue("org_id"))
	if orgID == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("org_id"))
		return
	}

	// Si el directorio responde, la org tiene que estar en la lista. Si no
	// responde, el switch del backend es quien rechaza.
	if list, err := c.dir.List(ctx, sc.Subject.ID, session.AccessTokenFrom(ctx)); err == nil {
		member := false
		for _, o := range list {
			if o.ID == orgID {
				member = true
				break
			}
		}
		if !member {
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("unknown organization"))
			return
		}
	} else {
		log.Warn("org directory unavailable, skipping membership check", logger.Err(err))
	}

	log.Info("organization selected", logger.TargetOrgID(orgID))
	session.Apply(w, []session.CookieMutation{c.cookies.SetOrg(orgID)})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
