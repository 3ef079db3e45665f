package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/crmfront/internal/observability/logger"
	"github.com/dropDatabas3/crmfront/internal/session"
)

// WithSession corre el resolver sobre cada request: aplica las mutaciones de
// cookies, y según la decisión redirige (307) o continúa con el Session
// Context y el access token vigente en el contexto.
func WithSession(res *session.Resolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out, err := res.Resolve(r.Context(), session.InputFromRequest(r))
			if err != nil {
				// el cliente se fue a mitad de un intercambio: no hay a quién responder
				logger.From(r.Context()).Debug("session resolution aborted", logger.Err(err))
				return
			}

			session.Apply(w, out.Mutations)

			if info := getRequestInfo(r.Context()); info != nil {
				info.decision = out.Decision.String()
				if out.Context.Subject != nil {
					info.userID = out.Context.Subject.ID
				}
				if out.Context.Organization != nil {
					info.orgID = out.Context.Organization.ID
				}
			}

			if out.Decision != session.Proceed {
				http.Redirect(w, r, out.Location, http.StatusTemporaryRedirect)
				return
			}

			ctx := session.ToContext(r.Context(), out.Context)
			ctx = session.WithAccessToken(ctx, out.AccessToken)
			if sc := out.Context; sc.Subject != nil {
				reqLog := logger.From(ctx).With(logger.UserID(sc.Subject.ID))
				if sc.Organization != nil {
					reqLog = reqLog.With(logger.OrgID(sc.Organization.ID))
				}
				ctx = logger.ToContext(ctx, reqLog)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
