package logger

import (
	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SESIÓN
// =================================================================================

// UserID es el subject del credential (claim user_id).
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// OrgID es la organización resuelta o pedida por el cookie "org".
func OrgID(v string) zap.Field { return zap.String("org_id", v) }

// TargetOrgID es la organización destino de un switch.
func TargetOrgID(v string) zap.Field { return zap.String("target_org_id", v) }

// Decision es la decisión de ruteo del resolver (proceed, redirect_login, redirect_org).
func Decision(v string) zap.Field { return zap.String("decision", v) }

// CredentialState es el estado del credential luego de decode/refresh.
func CredentialState(v string) zap.Field { return zap.String("credential_state", v) }

// OrgState es el estado de la reconciliación de organización.
func OrgState(v string) zap.Field { return zap.String("org_state", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(key, v string) zap.Field  { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
