package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedCredential: estructura inválida (segmentos, base64, JSON).
	ErrMalformedCredential = errors.New("session: malformed credential")
	// ErrExpiredCredential: exp ausente o no posterior a now.
	ErrExpiredCredential = errors.New("session: expired credential")
)

// claimString acepta string o número en el JSON (algunos backends emiten user_id numérico).
type claimString string

func (s *claimString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = claimString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("claim: expected string or number, got %s", string(b))
	}
	*s = claimString(n.String())
	return nil
}

// OrgSettingsClaim es la forma de org_settings dentro del payload.
type OrgSettingsClaim struct {
	DefaultCurrency string  `json:"default_currency,omitempty"`
	CurrencySymbol  string  `json:"currency_symbol,omitempty"`
	DefaultCountry  *string `json:"default_country,omitempty"`
}

// Claims es el payload del access token (jwt_access).
type Claims struct {
	UserID      claimString       `json:"user_id,omitempty"`
	Name        string            `json:"name,omitempty"`
	Email       string            `json:"email,omitempty"`
	ProfilePic  string            `json:"profile_pic,omitempty"`
	OrgID       claimString       `json:"org_id,omitempty"`
	OrgName     string            `json:"org_name,omitempty"`
	Role        string            `json:"role,omitempty"`
	OrgSettings *OrgSettingsClaim `json:"org_settings,omitempty"`
	jwtv5.RegisteredClaims
}

// SubjectID devuelve user_id, o sub si el emisor no incluyó user_id.
func (c *Claims) SubjectID() string {
	if id := strings.TrimSpace(string(c.UserID)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Subject)
}

// Org devuelve el org_id embebido en el credential.
func (c *Claims) Org() string {
	return strings.TrimSpace(string(c.OrgID))
}

// ExpiresAtTime devuelve exp; zero si el token no trae exp.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Settings convierte org_settings en OrgSettings, con defaults para lo ausente.
func (c *Claims) Settings() OrgSettings {
	out := DefaultOrgSettings()
	if c == nil || c.OrgSettings == nil {
		return out
	}
	if v := strings.TrimSpace(c.OrgSettings.DefaultCurrency); v != "" {
		out.Currency = v
	}
	if v := strings.TrimSpace(c.OrgSettings.CurrencySymbol); v != "" {
		out.Symbol = v
	}
	if c.OrgSettings.DefaultCountry != nil {
		country := *c.OrgSettings.DefaultCountry
		out.Country = &country
	}
	return out
}

var parser = jwtv5.NewParser()

// Decode parsea el token SIN verificar firma y devuelve las claims.
// No chequea expiración (ver Validate). Cualquier error estructural
// se reporta como ErrMalformedCredential.
func Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformedCredential
	}
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	return claims, nil
}

// Validate chequea que exp exista y sea posterior a now.
func Validate(c *Claims, now time.Time) error {
	if c == nil {
		return ErrMalformedCredential
	}
	exp := c.ExpiresAtTime()
	if exp.IsZero() || !exp.After(now) {
		return ErrExpiredCredential
	}
	return nil
}

// Inspect combina Decode + Validate y devuelve el estado etiquetado.
// Las claims se devuelven también cuando el token está expirado (útil para logs/CLI).
func Inspect(token string, now time.Time) (*Claims, CredentialState) {
	if strings.TrimSpace(token) == "" {
		return nil, CredentialAbsent
	}
	claims, err := Decode(token)
	if err != nil {
		return nil, CredentialMalformed
	}
	if err := Validate(claims, now); err != nil {
		return claims, CredentialExpired
	}
	return claims, CredentialValid
}
