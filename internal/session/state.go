package session

// CredentialState es el resultado etiquetado de la etapa de credential.
type CredentialState int

const (
	CredentialAbsent CredentialState = iota
	CredentialMalformed
	CredentialExpired
	CredentialValid
	CredentialRefreshed
	CredentialRefreshFailed
)

func (s CredentialState) String() string {
	switch s {
	case CredentialAbsent:
		return "absent"
	case CredentialMalformed:
		return "malformed"
	case CredentialExpired:
		return "expired"
	case CredentialValid:
		return "valid"
	case CredentialRefreshed:
		return "refreshed"
	case CredentialRefreshFailed:
		return "refresh_failed"
	default:
		return "unknown"
	}
}

// usable indica si el credential permite autenticar al subject.
func (s CredentialState) usable() bool {
	return s == CredentialValid || s == CredentialRefreshed
}

// OrgState es el resultado etiquetado de la reconciliación de organización.
type OrgState int

const (
	// OrgSkipped: no hubo subject, no se intentó reconciliar.
	OrgSkipped OrgState = iota
	// OrgNoSelector: subject presente pero sin cookie "org".
	OrgNoSelector
	OrgMatched
	OrgSwitched
	OrgSwitchFailed
)

func (s OrgState) String() string {
	switch s {
	case OrgSkipped:
		return "skipped"
	case OrgNoSelector:
		return "no_selector"
	case OrgMatched:
		return "matched"
	case OrgSwitched:
		return "switched"
	case OrgSwitchFailed:
		return "switch_failed"
	default:
		return "unknown"
	}
}

// Decision es la decisión de ruteo final.
type Decision int

const (
	Proceed Decision = iota
	RedirectLogin
	RedirectOrgPicker
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect_login"
	case RedirectOrgPicker:
		return "redirect_org"
	default:
		return "unknown"
	}
}

// Terminal devuelve el nombre del estado terminal de la máquina de estados.
func (d Decision) Terminal() string {
	switch d {
	case RedirectLogin:
		return "RedirectLogin"
	case RedirectOrgPicker:
		return "RedirectOrgPicker"
	default:
		return "Resolved"
	}
}
