package main

import (
	"errors"
	"os"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/highlight"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/hints"
	"github.com/alnah/go-md2html/internal/pdf"
	"github.com/alnah/go-md2html/mathengine"
)

// Exit codes for the md2html CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error, including rejected math
	ExitUsage   = 2 // Invalid flags, config, or settings
	ExitIO      = 3 // Unreadable input, asset or library; unwritable output
	ExitBrowser = 4 // Browser/Chrome errors during PDF export
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, pdf.ErrBrowserConnect) ||
		errors.Is(err, pdf.ErrPageCreate) ||
		errors.Is(err, pdf.ErrPageLoad) ||
		errors.Is(err, pdf.ErrPDFGeneration) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, md2html.ErrFile) ||
		errors.Is(err, md2html.ErrAssetRead) ||
		errors.Is(err, mathengine.ErrFile) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, md2html.ErrConfigurationKey) ||
		errors.Is(err, md2html.ErrConfigurationValue) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrStylesheetURL) {
		return ExitUsage
	}

	return ExitGeneral
}

// formatError renders err with an actionable hint when one applies.
func formatError(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, pdf.ErrBrowserConnect):
		msg += hints.ForBrowserConnect()
	case errors.Is(err, pdf.ErrPageLoad):
		msg += hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		var nf *configNotFoundError
		if errors.As(err, &nf) {
			msg += hints.ForConfigNotFound(config.SearchPaths(nf.name))
		} else {
			msg += hints.ForConfigNotFound(nil)
		}
	case errors.Is(err, mathengine.ErrFile):
		msg += hints.ForKaTeX()
	case errors.Is(err, highlight.ErrUnknownStyle):
		msg += hints.ForStyleNotFound(highlight.Styles())
	case errors.Is(err, md2html.ErrAssetRead):
		var ae *assetError
		root := ""
		if errors.As(err, &ae) {
			root = ae.root
		}
		msg += hints.ForAssetRead(root)
	case errors.Is(err, ErrOutputDirectory):
		msg += hints.ForOutputDirectory()
	}
	return msg
}
