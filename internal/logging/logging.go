// Package logging builds the zap loggers used by the collector and daemon.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr. The daemon uses JSON encoding;
// interactive commands get console encoding so cycle logs stay readable
// next to the rendered tables. Level is controlled by WRTSTAT_LOG_LEVEL.
func New(json bool) *zap.Logger {
	level := zapcore.InfoLevel
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("WRTSTAT_LOG_LEVEL"))); v != "" {
		_ = level.Set(v)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder

	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}
