// Package app arma el frontend a partir de la config: cache, limiter,
// cliente del backend, resolver de sesión, directorio de orgs, métricas,
// controllers y router.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/crmfront/internal/backend"
	"github.com/dropDatabas3/crmfront/internal/cache"
	"github.com/dropDatabas3/crmfront/internal/config"
	"github.com/dropDatabas3/crmfront/internal/http/controllers"
	"github.com/dropDatabas3/crmfront/internal/http/router"
	"github.com/dropDatabas3/crmfront/internal/metrics"
	"github.com/dropDatabas3/crmfront/internal/observability/logger"
	"github.com/dropDatabas3/crmfront/internal/orgs"
	"github.com/dropDatabas3/crmfront/internal/rate"
	"github.com/dropDatabas3/crmfront/internal/session"
)

// Deps son dependencias externas opcionales (tests las inyectan).
type Deps struct {
	// Registry nil usa el registry global de Prometheus.
	Registry *prometheus.Registry
	// HTTPClient para el backend; nil crea uno con cfg.Backend.Timeout.
	HTTPClient *http.Client
	// Cache ya construido; nil lo crea según cfg.Cache.
	Cache   cache.Client
	Version string
	Now     func() time.Time
}

// App es la aplicación cableada.
type App struct {
	Handler  http.Handler
	Resolver *session.Resolver
	Backend  *backend.Client

	closers []func() error
}

// New construye la aplicación. La config debe estar validada.
func New(cfg *config.Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	log := logger.L().With(logger.Component("app"))
	a := &App{}

	// 1. Métricas
	m, err := metrics.New(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	// 2. Cache
	c := deps.Cache
	if c == nil {
		c, err = cache.New(cache.Config{
			Driver:   cfg.Cache.Kind,
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("app: cache: %w", err)
		}
		a.closers = append(a.closers, c.Close)
	}
	if err := m.RegisterCache(deps.Registry, c); err != nil {
		log.Warn("cache metrics not registered", logger.Err(err))
	}

	// 3. Rate limiter (/api/*)
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if rdb, ok := cache.Raw(c); ok {
			limiter = rate.NewRedisLimiter(rdb, cache.Namespace(cfg.Cache.Redis.Prefix, "rl"), cfg.Rate.Proxy.Limit, cfg.Rate.Proxy.Window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Proxy.Limit, cfg.Rate.Proxy.Window)
		}
	}

	// 4. Backend
	client, err := backend.New(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		HTTPClient: deps.HTTPClient,
		Observe:    m.ObserveBackend,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: backend: %w", err)
	}
	a.Backend = client

	// 5. Resolver de sesión
	cookies := session.CookiePolicy{Secure: cfg.Cookies.Secure, Domain: cfg.Cookies.Domain}
	res, err := session.NewResolver(session.Config{
		Exchanger: client,
		Routes:    RoutesFromConfig(cfg),
		Cookies:   cookies,
		Observer:  m,
		Now:       deps.Now,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: resolver: %w", err)
	}
	a.Resolver = res

	// 6. Controllers + router
	ctrls, err := controllers.New(controllers.Deps{
		Directory:  orgs.NewDirectory(client, c, cfg.Cache.OrgsTTL),
		Cookies:    cookies,
		Routes:     res.Routes(),
		LoginURL:   cfg.Auth.LoginURL,
		BackendURL: client.BaseURL(),
		Cache:      c,
		Version:    deps.Version,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: controllers: %w", err)
	}

	a.Handler = router.New(router.Deps{
		Controllers: ctrls,
		Resolver:    res,
		Metrics:     m,
		Limiter:     limiter,
	})

	log.Info("app wired",
		logger.String("cache", cfg.Cache.Kind),
		logger.String("backend", cfg.Backend.BaseURL),
		logger.Any("rate_limit", cfg.Rate.Enabled),
	)
	return a, nil
}

// RoutesFromConfig arma las allow-lists; listas vacías usan las por defecto.
func RoutesFromConfig(cfg *config.Config) session.Routes { return cfg.SessionRoutes() }

// Close libera los recursos propios (cache).
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
