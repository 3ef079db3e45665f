package controllers

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	httperrors "github.com/dropDatabas3/crmfront/internal/http/errors"
	mw "github.com/dropDatabas3/crmfront/internal/http/middlewares"
	"github.com/dropDatabas3/crmfront/internal/observability/logger"
	"github.com/dropDatabas3/crmfront/internal/session"
)

// ProxyController reenvía /api/* al backend con el access token resuelto
// como Bearer. Los cookies del browser nunca llegan al backend.
type ProxyController struct {
	proxy *httputil.ReverseProxy
}

// NewProxyController apunta el proxy a target (scheme + host + path base).
func NewProxyController(target *url.URL) *ProxyController {
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()

			h := pr.Out.Header
			h.Del("Cookie")
			h.Del("Authorization")
			if tok := session.AccessTokenFrom(pr.In.Context()); tok != "" {
				h.Set("Authorization", "Bearer "+tok)
			}
			if rid := mw.GetRequestID(pr.In.Context()); rid != "" {
				h.Set(mw.HeaderRequestID, rid)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			// el backend no setea cookies del dominio del frontend
			resp.Header.Del("Set-Cookie")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.From(r.Context()).Warn("backend proxy failed", logger.Op("proxy"), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrBadGateway.WithCause(err))
		},
	}
	return &ProxyController{proxy: rp}
}

func (c *ProxyController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.proxy.ServeHTTP(w, r)
}
