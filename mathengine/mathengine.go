// Package mathengine renders single LaTeX expressions to HTML.
//
// Two engines are provided. KaTeX runs the KaTeX JavaScript library inside
// an embedded goja runtime and produces KaTeX HTML/MathML that needs the
// KaTeX stylesheet. MathML converts TeX to presentation MathML natively and
// needs no assets.
//
// Both share the same error policy. With throw-on-error set, an expression the
// engine cannot parse returns an error wrapping ErrParse. Otherwise a fallback
// fragment showing the raw expression in error-color is returned and,
// with log-errors set, a warning is logged.
package mathengine

import (
	"errors"
	"fmt"
	"html"
	"maps"

	"go.uber.org/zap"

	"github.com/alnah/go-md2html/settings"
)

// Sentinel errors for math rendering.
var (
	// ErrParse indicates the engine rejected an expression.
	ErrParse = errors.New("math parse error")

	// ErrFile indicates the math library script could not be loaded.
	ErrFile = errors.New("cannot load math library")
)

// Schema lists the options every engine recognizes.
var Schema = settings.Schema{
	"all-display-math": settings.Bool,
	"throw-on-error":   settings.Bool,
	"error-color":      settings.Color,
	"log-errors":       settings.Bool,
}

// Defaults are the option values engines start with.
var Defaults = map[string]string{
	"all-display-math": "0",
	"throw-on-error":   "1",
	"error-color":      "#CC0000",
	"log-errors":       "0",
}

// Option configures an engine.
type Option func(*base)

// WithLogger sets the logger used when log-errors is enabled.
func WithLogger(logger *zap.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.log = logger
		}
	}
}

// base holds the settings and error policy shared by every engine.
type base struct {
	settings *settings.Settings
	log      *zap.Logger
}

func newBase(extra settings.Schema, extraDefaults map[string]string, opts []Option) base {
	schema := maps.Clone(Schema)
	maps.Copy(schema, extra)
	defaults := maps.Clone(Defaults)
	maps.Copy(defaults, extraDefaults)

	b := base{
		settings: settings.New(schema, defaults),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Configure sets a single engine option.
// Returns settings.ErrUnknownKey or settings.ErrInvalidValue; on error the
// engine is unchanged.
func (b *base) Configure(key, value string) error {
	return b.settings.Configure(key, value)
}

// ApplySettings configures several options at once, all or nothing.
func (b *base) ApplySettings(values map[string]string) error {
	return b.settings.Apply(values)
}

// Settings returns a copy of the current options.
func (b *base) Settings() map[string]string {
	return b.settings.Settings()
}

func (b *base) flag(key string) bool {
	v, _ := b.settings.Bool(key)
	return v
}

// displayMode applies the all-display-math override.
func (b *base) displayMode(display bool) bool {
	return display || b.flag("all-display-math")
}

// failed applies the error policy to an expression the engine rejected.
func (b *base) failed(expression, reason string) (string, error) {
	if b.flag("throw-on-error") {
		return "", fmt.Errorf("%w: %s", ErrParse, reason)
	}

	if b.flag("log-errors") {
		b.log.Warn("Unable to render math expression",
			zap.String("expression", expression),
			zap.String("reason", reason))
	}

	color, _ := b.settings.Get("error-color")
	return Fallback(expression, reason, color), nil
}

// Fallback returns the fragment shown in place of an expression that failed
// to render.
func Fallback(expression, reason, color string) string {
	return `<span class="katex-error" title="` + html.EscapeString(reason) +
		`" style="color: ` + html.EscapeString(color) + `">` +
		html.EscapeString(expression) + `</span>`
}
