package main

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-md2html/internal/pdf"
)

// Exporter prints assembled HTML to PDF.
type Exporter interface {
	Export(ctx context.Context, html, sourceDir string) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ Exporter = (*pdf.Exporter)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now         func() time.Time
	Stdout      io.Writer
	Stderr      io.Writer
	NewExporter func(timeout time.Duration, logger *zap.Logger) Exporter
}

// DefaultEnv returns the production environment: process streams and a
// headless Chrome exporter.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewExporter: func(timeout time.Duration, logger *zap.Logger) Exporter {
			return pdf.NewExporter(timeout, pdf.WithLogger(logger))
		},
	}
}
