package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the console logger of the command. Output has no caller
// and no stack traces; level is one of debug, info, warn, error.
func newLogger(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeCaller = nil
	encCfg.TimeKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// logLevel resolves the effective level: --verbose and --quiet win over the
// configured level.
func logLevel(configured string, quiet, verbose bool) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	case configured == "":
		return "info"
	default:
		return configured
	}
}
