package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es la estructura estándar de error de la capa HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un AppError ad hoc.
func New(status int, code, message string) *AppError { return def(status, code, message) }

// FromError convierte cualquier error en AppError. Los que no lo son se
// reportan como 500 conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con detalle (no muta los predefinidos).
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

func def(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Requests del browser
var (
	ErrBadRequest       = def(http.StatusBadRequest, "bad_request", "Solicitud inválida.")
	ErrMissingFields    = def(http.StatusBadRequest, "missing_fields", "Faltan campos requeridos.")
	ErrNotFound         = def(http.StatusNotFound, "not_found", "Página o recurso inexistente.")
	ErrMethodNotAllowed = def(http.StatusMethodNotAllowed, "method_not_allowed", "Método no permitido.")
)

// Sesión
var (
	ErrUnauthorized = def(http.StatusUnauthorized, "unauthenticated", "Sesión inexistente o vencida.")
	ErrOrgRequired  = def(http.StatusForbidden, "org_required", "Seleccioná una organización para continuar.")
	ErrCSRF         = def(http.StatusForbidden, "csrf_invalid", "Token CSRF ausente o inválido.")
)

// Infra y backend
var (
	ErrRateLimitExceeded   = def(http.StatusTooManyRequests, "rate_limited", "Demasiadas solicitudes, reintentá en unos segundos.")
	ErrInternalServerError = def(http.StatusInternalServerError, "internal", "Error inesperado.")
	ErrBadGateway          = def(http.StatusBadGateway, "backend_unavailable", "El backend del CRM no respondió correctamente.")
	ErrServiceUnavailable  = def(http.StatusServiceUnavailable, "unavailable", "Servicio temporalmente no disponible.")
)
