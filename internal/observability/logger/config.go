package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configura el logger.
type Config struct {
	// Env: prod|production|staging => JSON; cualquier otro valor => consola.
	Env string

	// Level: debug | info | warn | error. Default: info.
	Level string

	// ServiceName y Version se agregan como campos fijos si no están vacíos.
	ServiceName string
	Version     string

	// Out es el destino; nil => stderr.
	Out zapcore.WriteSyncer
}

func (c Config) structured() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "prod", "production", "staging":
		return true
	}
	return false
}

func build(cfg Config) *zap.Logger {
	out := cfg.Out
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	var (
		enc  zapcore.Encoder
		opts = []zap.Option{zap.AddCaller()}
	)
	if cfg.structured() {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "ts"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		enc = zapcore.NewJSONEncoder(ec)
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	}

	l := zap.New(zapcore.NewCore(enc, out, zap.NewAtomicLevelAt(parseLevel(cfg.Level))), opts...)

	var fields []zap.Field
	if cfg.ServiceName != "" {
		fields = append(fields, zap.String("service", cfg.ServiceName))
	}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}
	return l.With(fields...)
}

func parseLevel(lvl string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(lvl)))); err != nil || lvl == "" {
		return zapcore.InfoLevel
	}
	return l
}
