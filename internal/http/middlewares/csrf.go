package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/crmfront/internal/http/errors"
)

// Double-submit CSRF para los forms propios (POST /org, POST /logout).
const (
	CSRFCookieName = "csrf_token"
	CSRFFieldName  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFConfig configura el cookie del token.
type CSRFConfig struct {
	Secure bool
	Domain string
}

// CSRFToken devuelve el token del request o emite uno nuevo en el cookie.
// Los handlers que renderizan forms lo incrustan como campo oculto.
func CSRFToken(w http.ResponseWriter, r *http.Request, cfg CSRFConfig) string {
	if ck, err := r.Cookie(CSRFCookieName); err == nil && strings.TrimSpace(ck.Value) != "" {
		return ck.Value
	}
	tok := strings.ReplaceAll(uuid.NewString(), "-", "")
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    tok,
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return tok
}

// WithCSRF exige en métodos inseguros que el header X-CSRF-Token o el campo
// de form csrf_token coincida con el cookie.
func WithCSRF() Middleware {
	isUnsafe := func(m string) bool {
		switch strings.ToUpper(m) {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			return true
		default:
			return false
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isUnsafe(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			sent := strings.TrimSpace(r.Header.Get(CSRFHeaderName))
			if sent == "" {
				sent = strings.TrimSpace(r.PostFormValue(CSRFFieldName))
			}
			ck, _ := r.Cookie(CSRFCookieName)

			if sent == "" || ck == nil || ck.Value == "" ||
				subtle.ConstantTimeCompare([]byte(sent), []byte(ck.Value)) != 1 {
				errors.WriteError(w, errors.ErrCSRF)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
