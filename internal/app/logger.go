package app

import (
	"fmt"
	"os"

	_ "github.com/jsternberg/zap-logfmt" // Registers the "logfmt" encoder
	"go.uber.org/zap"

	"paymenthub/internal/config"
)

// NewLogger builds a production zap logger with the logfmt encoder.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "logfmt"
	if err := zc.Level.UnmarshalText([]byte(cfg.Logger.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logger.Level, err)
	}
	zc.InitialFields = make(map[string]any)
	zc.InitialFields["host"], _ = os.Hostname()
	zc.InitialFields["service"] = cfg.Application
	zc.OutputPaths = []string{"stdout"}
	if !cfg.IsProdMode {
		zc.Development = true
	}
	return zc.Build()
}
