// Package markup provides the Markdown engines a document parser can render
// text with.
//
// Engines own their settings. Any change made through Configure or
// ApplySettings takes effect on the next Render; engines rebuild their
// underlying parser lazily when the settings version moves.
package markup

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/alnah/go-md2html/settings"
)

// base holds the settings plumbing shared by every engine.
type base struct {
	settings *settings.Settings
}

// Configure sets a single engine option.
// Returns settings.ErrUnknownKey or settings.ErrInvalidValue; on error the
// engine is unchanged.
func (b *base) Configure(key, value string) error {
	return b.settings.Configure(key, value)
}

// ApplySettings configures several options at once. Either every entry is
// applied or, on error, none is.
func (b *base) ApplySettings(values map[string]string) error {
	return b.settings.Apply(values)
}

// Settings returns a copy of the current options.
func (b *base) Settings() map[string]string {
	return b.settings.Settings()
}

// Keys returns the option names the engine recognizes.
func (b *base) Keys() []string {
	return b.settings.Keys()
}

// flag reads a boolean option. Schema validation guarantees the value parses.
func (b *base) flag(key string) bool {
	v, _ := b.settings.Bool(key)
	return v
}

var (
	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy
)

// sanitizer returns the shared user-generated-content policy.
// bluemonday policies are safe for concurrent use once built.
func sanitizer() *bluemonday.Policy {
	ugcOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
		ugcPolicy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span", "div")
	})
	return ugcPolicy
}
