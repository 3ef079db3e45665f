// Package backend es el cliente del REST backend del CRM para los endpoints de auth
// que consume el frontend (refresh, switch de org, listado de orgs).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/crmfront/internal/session"
)

// Endpoints del backend.
const (
	PathRefresh   = "/api/auth/refresh-token/"
	PathSwitchOrg = "/api/auth/switch-org/"
	PathListOrgs  = "/api/auth/me/orgs/"
)

// Operaciones (label de métricas y logs).
const (
	OpRefresh   = "refresh"
	OpSwitchOrg = "switch_org"
	OpListOrgs  = "list_orgs"
)

// DefaultTimeout aplica cuando Config.Timeout es 0.
const DefaultTimeout = 15 * time.Second

const maxBody = 1 << 20

// ErrExchangeFailed es el sentinel de cualquier fallo de llamada al backend.
var ErrExchangeFailed = errors.New("backend: exchange failed")

// ExchangeError detalla el fallo: status HTTP (0 si no hubo respuesta) y causa.
type ExchangeError struct {
	Op     string
	Status int
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrExchangeFailed).
func (e *ExchangeError) Is(target error) bool { return target == ErrExchangeFailed }

// ObserveFunc recibe la latencia de cada llamada (outcome: "ok" | "error").
type ObserveFunc func(op, outcome string, d time.Duration)

// Config configura el cliente.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient opcional; si es nil se crea uno con Timeout.
	HTTPClient *http.Client
	Observe    ObserveFunc
}

// Client habla con el backend. Seguro para uso concurrente.
type Client struct {
	base    *url.URL
	http    *http.Client
	observe ObserveFunc
}

// New valida la URL base y construye el cliente.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("backend: base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{base: base, http: hc, observe: cfg.Observe}, nil
}

// BaseURL devuelve la URL base (para el reverse proxy).
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// RefreshToken: POST /api/auth/refresh-token/ {refresh} → {access}.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (string, error) {
	var out refreshResponse
	if err := c.do(ctx, OpRefresh, http.MethodPost, PathRefresh, "", refreshRequest{Refresh: refresh}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Access) == "" {
		return "", &ExchangeError{Op: OpRefresh, Status: http.StatusOK, Err: errors.New("empty access token")}
	}
	return out.Access, nil
}

type switchRequest struct {
	OrgID string `json:"org_id"`
}

type switchResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	CurrentOrg   struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	} `json:"current_org"`
}

// SwitchOrg: POST /api/auth/switch-org/ {org_id} con Bearer → credenciales de la org.
func (c *Client) SwitchOrg(ctx context.Context, access, orgID string) (session.SwitchResult, error) {
	var out switchResponse
	if err := c.do(ctx, OpSwitchOrg, http.MethodPost, PathSwitchOrg, access, switchRequest{OrgID: orgID}, &out); err != nil {
		return session.SwitchResult{}, err
	}
	if strings.TrimSpace(out.AccessToken) == "" || strings.TrimSpace(out.RefreshToken) == "" {
		return session.SwitchResult{}, &ExchangeError{Op: OpSwitchOrg, Status: http.StatusOK, Err: errors.New("missing tokens in response")}
	}
	return session.SwitchResult{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		CurrentOrg:   session.Organization{ID: rawID(out.CurrentOrg.ID), Name: out.CurrentOrg.Name},
	}, nil
}

// Org es una organización a la que pertenece el usuario.
type Org struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type listOrgsResponse struct {
	Organizations []struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
		Role string          `json:"role"`
	} `json:"organizations"`
}

// ListOrgs: GET /api/auth/me/orgs/ con Bearer → organizaciones del usuario.
func (c *Client) ListOrgs(ctx context.Context, access string) ([]Org, error) {
	var out listOrgsResponse
	if err := c.do(ctx, OpListOrgs, http.MethodGet, PathListOrgs, access, nil, &out); err != nil {
		return nil, err
	}
	orgs := make([]Org, 0, len(out.Organizations))
	for _, o := range out.Organizations {
		id := rawID(o.ID)
		if id == "" {
			continue
		}
		orgs = append(orgs, Org{ID: id, Name: o.Name, Role: o.Role})
	}
	return orgs, nil
}

// do ejecuta la llamada, decodifica JSON en out y mapea non-2xx a ExchangeError.
func (c *Client) do(ctx context.Context, op, method, path, bearer string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observe == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.observe(op, outcome, time.Since(start))
	}()

	var body io.Reader
	if in != nil {
		b, mErr := json.Marshal(in)
		if mErr != nil {
			return &ExchangeError{Op: op, Err: mErr}
		}
		body = bytes.NewReader(b)
	}

	u := c.base.JoinPath(path)
	// JoinPath limpia la barra final que el backend exige
	endpoint := u.String()
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	req, rErr := http.NewRequestWithContext(ctx, method, endpoint, body)
	if rErr != nil {
		return &ExchangeError{Op: op, Err: rErr}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, dErr := c.http.Do(req)
	if dErr != nil {
		return &ExchangeError{Op: op, Err: dErr}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode/100 != 2 {
		return &ExchangeError{Op: op, Status: resp.StatusCode, Err: errors.New(snippet(raw))}
	}
	if out == nil {
		return nil
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return &ExchangeError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", uErr)}
	}
	return nil
}

// rawID acepta ids string o numéricos.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.Trim(string(raw), `"`)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "empty body"
	}
	if len(s) > 200 {
		s = s[:200] + "…"
	}
	return s
}
