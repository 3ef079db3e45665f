package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dropDatabas3/crmfront/internal/session"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	ctxRequestIDKey   ctxKey = "request_id"
	ctxRequestInfoKey ctxKey = "request_info"
)

// requestInfo lo crea WithLogging y lo completan middlewares internos, para que
// el log final incluya datos resueltos más adentro de la cadena.
type requestInfo struct {
	userID   string
	orgID    string
	decision string
}

func withRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, ctxRequestInfoKey, info)
}

func getRequestInfo(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(ctxRequestInfoKey).(*requestInfo)
	return info
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto, o "".
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// GetSession devuelve el Session Context resuelto por WithSession.
func GetSession(ctx context.Context) session.Context {
	sc, _ := session.FromContext(ctx)
	return sc
}

// GetUserID obtiene el id del subject resuelto, o "".
func GetUserID(ctx context.Context) string {
	if sc, ok := session.FromContext(ctx); ok && sc.Subject != nil {
		return sc.Subject.ID
	}
	return ""
}

// clientIP extrae la IP del cliente, considerando proxies.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// isHTTPS detecta si el request llegó por HTTPS (directo o detrás de proxy).
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
