package session

import (
	"path"
	"strings"
)

// RouteClass clasifica un path según lo que exige para continuar.
type RouteClass int

const (
	// RouteProtected exige subject y organización.
	RouteProtected RouteClass = iota
	// RoutePublic no exige nada (login, logout, bounce...).
	RoutePublic
	// RouteAuthOnly exige subject pero no organización (el selector de org).
	RouteAuthOnly
)

func (c RouteClass) String() string {
	switch c {
	case RoutePublic:
		return "public"
	case RouteAuthOnly:
		return "auth_only"
	default:
		return "protected"
	}
}

// Default paths de redirección y allow-lists.
const (
	DefaultLoginPath = "/login"
	DefaultOrgPath   = "/org"
)

var (
	DefaultPublicRoutes   = []string{"/login", "/logout", "/bounce", "/healthz", "/metrics", "/static"}
	DefaultAuthOnlyRoutes = []string{"/org", "/session"}
)

// Routes es la tabla de clasificación de rutas.
// Una entrada matchea el path exacto o cualquier path bajo ella ("/static" matchea "/static/app.css",
// pero no "/staticfoo").
type Routes struct {
	Public    []string
	AuthOnly  []string
	LoginPath string
	OrgPath   string
}

// DefaultRoutes devuelve la tabla por defecto.
func DefaultRoutes() Routes {
	return Routes{
		Public:    append([]string(nil), DefaultPublicRoutes...),
		AuthOnly:  append([]string(nil), DefaultAuthOnlyRoutes...),
		LoginPath: DefaultLoginPath,
		OrgPath:   DefaultOrgPath,
	}
}

func (r Routes) loginPath() string {
	if r.LoginPath == "" {
		return DefaultLoginPath
	}
	return r.LoginPath
}

func (r Routes) orgPath() string {
	if r.OrgPath == "" {
		return DefaultOrgPath
	}
	return r.OrgPath
}

// Classify devuelve la clase del path. Public tiene prioridad sobre AuthOnly.
func (r Routes) Classify(p string) RouteClass {
	p = normalize(p)
	if matchAny(r.Public, p) {
		return RoutePublic
	}
	if matchAny(r.AuthOnly, p) {
		return RouteAuthOnly
	}
	return RouteProtected
}

// Decide aplica la clasificación sobre el Context resuelto.
func (r Routes) Decide(p string, sc Context) Decision {
	switch r.Classify(p) {
	case RoutePublic:
		return Proceed
	case RouteAuthOnly:
		if !sc.Authenticated() {
			return RedirectLogin
		}
		return Proceed
	default:
		if !sc.Authenticated() {
			return RedirectLogin
		}
		if !sc.HasOrganization() {
			return RedirectOrgPicker
		}
		return Proceed
	}
}

// Location devuelve el destino de la redirección para la decisión ("" si Proceed).
func (r Routes) Location(d Decision) string {
	switch d {
	case RedirectLogin:
		return r.loginPath()
	case RedirectOrgPicker:
		return r.orgPath()
	default:
		return ""
	}
}

func matchAny(entries []string, p string) bool {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		e = normalize(e)
		if p == e {
			return true
		}
		if e == "/" {
			continue
		}
		if strings.HasPrefix(p, e+"/") {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
