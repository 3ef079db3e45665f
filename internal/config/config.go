package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/crmfront/internal/session"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Backend REST del CRM (refresh, switch-org, listado de orgs y /api/*).
	Backend struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`

	Auth struct {
		// LoginURL es el login externo al que enlaza /login.
		LoginURL string `yaml:"login_url"`
	} `yaml:"auth"`

	Cookies struct {
		Secure bool   `yaml:"secure"`
		Domain string `yaml:"domain"`
	} `yaml:"cookies"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		OrgsTTL time.Duration `yaml:"orgs_ttl"`
	} `yaml:"cache"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// Proxy limita /api/* por usuario.
		Proxy struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"proxy"`
	} `yaml:"rate"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Routes struct {
		Public    []string `yaml:"public"`
		AuthOnly  []string `yaml:"auth_only"`
		LoginPath string   `yaml:"login_path"`
		OrgPath   string   `yaml:"org_path"`
	} `yaml:"routes"`
}

// Default devuelve la config sin archivo ni env.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load lee el YAML (path "" = sin archivo), aplica defaults y variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "crmfront"
	}
	if c.Cache.OrgsTTL == 0 {
		c.Cache.OrgsTTL = 60 * time.Second
	}
	if c.Rate.Proxy.Limit == 0 {
		c.Rate.Proxy.Limit = 300
	}
	if c.Rate.Proxy.Window == 0 {
		c.Rate.Proxy.Window = time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Routes.LoginPath == "" {
		c.Routes.LoginPath = "/login"
	}
	if c.Routes.OrgPath == "" {
		c.Routes.OrgPath = "/org"
	}

	// cookies de credenciales siempre Secure en prod
	if c.IsProd() {
		c.Cookies.Secure = true
	}
}

// IsProd indica APP_ENV=prod|production.
func (c *Config) IsProd() bool {
	switch strings.ToLower(c.App.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// SessionRoutes arma la tabla de rutas del resolver; listas vacías usan las por defecto.
func (c *Config) SessionRoutes() session.Routes {
	r := session.DefaultRoutes()
	if len(c.Routes.Public) > 0 {
		r.Public = c.Routes.Public
	}
	if len(c.Routes.AuthOnly) > 0 {
		r.AuthOnly = c.Routes.AuthOnly
	}
	if c.Routes.LoginPath != "" {
		r.LoginPath = c.Routes.LoginPath
	}
	if c.Routes.OrgPath != "" {
		r.OrgPath = c.Routes.OrgPath
	}
	return r
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(strings.TrimSpace(v))
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// BACKEND
	if v, ok := getEnvStr("BACKEND_BASE_URL"); ok {
		c.Backend.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := getEnvDur("BACKEND_TIMEOUT"); ok {
		c.Backend.Timeout = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_LOGIN_URL"); ok {
		c.Auth.LoginURL = strings.TrimSpace(v)
	}

	// COOKIES
	if v, ok := getEnvBool("COOKIES_SECURE"); ok {
		c.Cookies.Secure = v
	}
	if v, ok := getEnvStr("COOKIES_DOMAIN"); ok {
		c.Cookies.Domain = strings.TrimSpace(v)
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvDur("CACHE_ORGS_TTL"); ok {
		c.Cache.OrgsTTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_PROXY_LIMIT"); ok {
		c.Rate.Proxy.Limit = v
	}
	if v, ok := getEnvDur("RATE_PROXY_WINDOW"); ok {
		c.Rate.Proxy.Window = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}

	// ROUTES
	if v, ok := getEnvCSV("ROUTES_PUBLIC"); ok {
		c.Routes.Public = v
	}
	if v, ok := getEnvCSV("ROUTES_AUTH_ONLY"); ok {
		c.Routes.AuthOnly = v
	}
}

// Validate verifica los valores críticos.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.base_url: invalid URL %q", c.Backend.BaseURL))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout: must be > 0"))
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("cache.redis.addr: required when cache.kind=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q (memory|redis)", c.Cache.Kind))
	}

	if c.Rate.Enabled && (c.Rate.Proxy.Limit <= 0 || c.Rate.Proxy.Window <= 0) {
		errs = append(errs, errors.New("rate.proxy: limit and window must be > 0"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown %q", c.Log.Level))
	}

	for _, p := range append(append([]string{c.Routes.LoginPath, c.Routes.OrgPath}, c.Routes.Public...), c.Routes.AuthOnly...) {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("routes: path %q must start with /", p))
		}
	}

	// login debe ser alcanzable sin sesión y el picker sin org, si no el redirect se repite
	rt := c.SessionRoutes()
	if cls := rt.Classify(rt.LoginPath); cls != session.RoutePublic {
		errs = append(errs, fmt.Errorf("routes.login_path: %q is %s, must be listed in routes.public", rt.LoginPath, cls))
	}
	if cls := rt.Classify(rt.OrgPath); cls == session.RouteProtected {
		errs = append(errs, fmt.Errorf("routes.org_path: %q is protected, must be listed in routes.public or routes.auth_only", rt.OrgPath))
	}

	return errors.Join(errs...)
}
