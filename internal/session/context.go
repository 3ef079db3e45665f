package session

import "context"

// Subject es la identidad del caller, tomada de las claims del credential.
type Subject struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfilePhoto string `json:"profilePhoto"`
}

// Organization es la organización en la que opera el request.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrgSettings son preferencias de la organización. Country nil == sin país por defecto.
type OrgSettings struct {
	Currency string  `json:"currency"`
	Symbol   string  `json:"symbol"`
	Country  *string `json:"country"`
}

// DefaultOrgSettings es {USD, $, null}.
func DefaultOrgSettings() OrgSettings {
	return OrgSettings{Currency: "USD", Symbol: "$"}
}

// Context es la vista resuelta del request: quién, con qué rol y en qué org.
// Se construye por request y nunca se comparte ni persiste.
type Context struct {
	Subject      *Subject      `json:"user"`
	Organization *Organization `json:"org"`
	Role         string        `json:"role,omitempty"`
	OrgSettings  OrgSettings   `json:"org_settings"`
}

// Authenticated indica si hay subject.
func (c Context) Authenticated() bool { return c.Subject != nil }

// HasOrganization indica si la organización quedó establecida.
func (c Context) HasOrganization() bool { return c.Organization != nil }

type ctxKey struct{}

// ToContext guarda el Context resuelto en ctx.
func ToContext(ctx context.Context, sc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

// FromContext obtiene el Context resuelto. ok=false si el middleware no corrió.
func FromContext(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	sc, ok := ctx.Value(ctxKey{}).(Context)
	return sc, ok
}

type accessKey struct{}

// WithAccessToken guarda el access token vigente (posiblemente recién renovado)
// para los handlers que hablan con el backend en nombre del usuario.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessKey{}, token)
}

// AccessTokenFrom devuelve el access token vigente del request, o "".
func AccessTokenFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(accessKey{}).(string)
	return s
}

// ClaimsContext arma el Context que implica un credential por sí solo,
// asumiendo que su org embebida es la seleccionada.
func ClaimsContext(c *Claims) Context {
	sc := Context{OrgSettings: DefaultOrgSettings()}
	if c == nil {
		return sc
	}
	sc.Subject = subjectFrom(c)
	if org := c.Org(); org != "" {
		sc.Organization = &Organization{ID: org, Name: c.OrgName}
		sc.Role = c.Role
		sc.OrgSettings = c.Settings()
	}
	return sc
}
