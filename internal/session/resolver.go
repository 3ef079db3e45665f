package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/crmfront/internal/observability/logger"
)

// Outcome es la salida única del resolver.
type Outcome struct {
	Context   Context
	Mutations []CookieMutation
	Decision  Decision
	// Location es el destino de la redirección ("" si Decision == Proceed).
	Location        string
	CredentialState CredentialState
	OrgState        OrgState
	// AccessToken es el credential vigente al terminar (refrescado o switcheado);
	// vacío si no hay subject.
	AccessToken string
}

// Mutation devuelve la última mutación para el cookie name.
func (o Outcome) Mutation(name string) (CookieMutation, bool) {
	for i := len(o.Mutations) - 1; i >= 0; i-- {
		if o.Mutations[i].Name == name {
			return o.Mutations[i], true
		}
	}
	return CookieMutation{}, false
}

// put agrega mutaciones reemplazando las previas del mismo cookie (última gana).
func (o *Outcome) put(muts ...CookieMutation) {
	for _, m := range muts {
		replaced := false
		for i := range o.Mutations {
			if o.Mutations[i].Name == m.Name {
				o.Mutations[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			o.Mutations = append(o.Mutations, m)
		}
	}
}

// Config configura el Resolver.
type Config struct {
	Exchanger Exchanger
	Routes    Routes
	Cookies   CookiePolicy
	Observer  Observer
	// Now permite fijar el reloj en tests. Default: time.Now.
	Now func() time.Time
}

// Resolver ejecuta el pipeline de sesión. Es stateless y seguro para uso concurrente.
type Resolver struct {
	exchanger Exchanger
	routes    Routes
	cookies   CookiePolicy
	observer  Observer
	now       func() time.Time
}

// NewResolver crea un Resolver. Exchanger es obligatorio.
func NewResolver(cfg Config) (*Resolver, error) {
	if cfg.Exchanger == nil {
		return nil, errors.New("session: exchanger is required")
	}
	r := &Resolver{
		exchanger: cfg.Exchanger,
		routes:    cfg.Routes,
		cookies:   cfg.Cookies,
		observer:  cfg.Observer,
		now:       cfg.Now,
	}
	if r.routes.Public == nil && r.routes.AuthOnly == nil {
		r.routes = DefaultRoutes()
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Routes devuelve la tabla de rutas del resolver.
func (r *Resolver) Routes() Routes { return r.routes }

// Cookies devuelve la política de cookies del resolver.
func (r *Resolver) Cookies() CookiePolicy { return r.cookies }

// Resolve ejecuta decode → refresh? → org match/switch? → ruteo.
//
// Ningún fallo del backend escapa: se convierte en transición de estado.
// El único error devuelto es la cancelación de ctx durante un exchange; en ese
// caso el Outcome no trae mutaciones y su decisión es la de un request anónimo.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Outcome, error) {
	log := logger.From(ctx).With(logger.Component("session.resolver"))

	out := Outcome{Context: Context{OrgSettings: DefaultOrgSettings()}}

	// ─── Etapa 1: credential ───
	access := strings.TrimSpace(in.AccessToken)
	refresh := strings.TrimSpace(in.RefreshToken)

	claims, state := Inspect(access, r.now())
	out.CredentialState = state

	if (state == CredentialMalformed || state == CredentialExpired) && refresh != "" {
		fresh, freshClaims, err := r.refresh(ctx, refresh)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return r.aborted(ctx, in, ctxErr), ctxErr
		}
		if err != nil {
			log.Warn("refresh exchange failed, clearing credentials",
				logger.Op("refresh"),
				logger.CredentialState(state.String()),
				logger.Err(err),
			)
			r.observer.ObserveRefresh(false)
			out.put(r.cookies.ClearAll()...)
			out.CredentialState = CredentialRefreshFailed
			claims = nil
		} else {
			r.observer.ObserveRefresh(true)
			out.put(r.cookies.SetAccess(fresh))
			out.CredentialState = CredentialRefreshed
			access = fresh
			claims = freshClaims
		}
	}

	// ─── Etapa 2: subject + organización ───
	if out.CredentialState.usable() && claims != nil {
		out.AccessToken = access
		out.Context.Subject = subjectFrom(claims)
		log = log.With(logger.UserID(out.Context.Subject.ID))

		orgSel := strings.TrimSpace(in.OrgID)
		switch {
		case orgSel == "":
			out.OrgState = OrgNoSelector

		case claims.Org() == orgSel:
			out.OrgState = OrgMatched
			out.Context.Organization = &Organization{ID: orgSel, Name: claims.OrgName}
			out.Context.Role = claims.Role
			out.Context.OrgSettings = claims.Settings()

		default:
			res, err := r.switchOrg(ctx, access, orgSel)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.aborted(ctx, in, ctxErr), ctxErr
			}
			if err != nil {
				log.Warn("org switch failed, clearing org selector",
					logger.Op("switch_org"),
					logger.OrgID(claims.Org()),
					logger.TargetOrgID(orgSel),
					logger.Err(err),
				)
				r.observer.ObserveOrgSwitch(false)
				out.put(r.cookies.Clear(OrgCookie))
				out.OrgState = OrgSwitchFailed
				break
			}
			r.observer.ObserveOrgSwitch(true)
			out.OrgState = OrgSwitched
			out.put(
				r.cookies.SetAccess(res.AccessToken),
				r.cookies.SetRefresh(res.RefreshToken),
			)
			out.AccessToken = res.AccessToken

			org := res.CurrentOrg
			if strings.TrimSpace(org.ID) == "" {
				org.ID = orgSel
			}
			if org.ID != orgSel {
				// El backend manda: re-alineamos el selector con la org efectiva.
				log.Warn("org switch returned a different org",
					logger.TargetOrgID(orgSel),
					logger.OrgID(org.ID),
				)
				out.put(r.cookies.SetOrg(org.ID))
			}
			out.Context.Organization = &Organization{ID: org.ID, Name: org.Name}

			if switched, err := Decode(res.AccessToken); err == nil {
				out.Context.Role = switched.Role
				out.Context.OrgSettings = switched.Settings()
				if out.Context.Organization.Name == "" {
					out.Context.Organization.Name = switched.OrgName
				}
			} else {
				log.Debug("switched credential not decodable, using default org settings", logger.Err(err))
			}
		}
	}

	// ─── Etapa 3: ruteo ───
	out.Decision = r.routes.Decide(in.Path, out.Context)
	out.Location = r.routes.Location(out.Decision)
	r.observer.ObserveDecision(out.Decision)

	if out.Decision != Proceed || out.CredentialState == CredentialRefreshFailed || out.OrgState == OrgSwitchFailed {
		log.Debug("session resolved",
			logger.Path(in.Path),
			logger.CredentialState(out.CredentialState.String()),
			logger.OrgState(out.OrgState.String()),
			logger.Decision(out.Decision.String()),
		)
	}
	return out, nil
}

// refresh canjea el refresh token y exige que el credential nuevo sea válido.
func (r *Resolver) refresh(ctx context.Context, refresh string) (string, *Claims, error) {
	fresh, err := r.exchanger.RefreshToken(ctx, refresh)
	if err != nil {
		return "", nil, err
	}
	claims, state := Inspect(fresh, r.now())
	if state != CredentialValid {
		return "", nil, fmt.Errorf("refreshed credential is %s", state)
	}
	return strings.TrimSpace(fresh), claims, nil
}

func (r *Resolver) switchOrg(ctx context.Context, access, orgID string) (SwitchResult, error) {
	res, err := r.exchanger.SwitchOrg(ctx, access, orgID)
	if err != nil {
		return SwitchResult{}, err
	}
	if strings.TrimSpace(res.AccessToken) == "" || strings.TrimSpace(res.RefreshToken) == "" {
		return SwitchResult{}, errors.New("switch response without credentials")
	}
	return res, nil
}

// aborted arma el Outcome de un request cancelado: sin mutaciones y tratado como anónimo.
func (r *Resolver) aborted(ctx context.Context, in Input, err error) Outcome {
	logger.From(ctx).Debug("session resolution aborted", logger.Path(in.Path), logger.Err(err))
	out := Outcome{
		Context:         Context{OrgSettings: DefaultOrgSettings()},
		CredentialState: CredentialAbsent,
		OrgState:        OrgSkipped,
	}
	out.Decision = r.routes.Decide(in.Path, out.Context)
	out.Location = r.routes.Location(out.Decision)
	return out
}

func subjectFrom(c *Claims) *Subject {
	return &Subject{
		ID:           c.SubjectID(),
		Name:         c.Name,
		Email:        c.Email,
		ProfilePhoto: c.ProfilePic,
	}
}
