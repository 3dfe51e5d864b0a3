package markup

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/alnah/go-md2html/settings"
)

// GomarkdownSchema lists the options of the gomarkdown engine.
var GomarkdownSchema = settings.Schema{
	"tables":           settings.Bool,
	"fenced-code":      settings.Bool,
	"footnotes":        settings.Bool,
	"autolink":         settings.Bool,
	"strike":           settings.Bool,
	"superscript":      settings.Bool,
	"heading-ids":      settings.Bool,
	"hard-wraps":       settings.Bool,
	"definition-lists": settings.Bool,
	"sanitize":         settings.Bool,
}

// GomarkdownDefaults mirror the GitHub-style subset of gomarkdown's common
// extensions.
var GomarkdownDefaults = map[string]string{
	"tables":           "1",
	"fenced-code":      "1",
	"footnotes":        "1",
	"autolink":         "1",
	"strike":           "1",
	"superscript":      "0",
	"heading-ids":      "1",
	"hard-wraps":       "0",
	"definition-lists": "0",
	"sanitize":         "0",
}

// gomarkdownBase is always on. parser.MathJax is never set: math spans are
// extracted before the engine runs and their markers must come out as text.
const gomarkdownBase = parser.NoIntraEmphasis | parser.SpaceHeadings | parser.BackslashLineBreak

// Gomarkdown renders Markdown using gomarkdown.
// Not safe for concurrent use.
type Gomarkdown struct {
	base
	exts    parser.Extensions
	builtAt uint64
}

// NewGomarkdown creates a gomarkdown engine with GomarkdownDefaults.
func NewGomarkdown() *Gomarkdown {
	g := &Gomarkdown{base: base{settings: settings.New(GomarkdownSchema, GomarkdownDefaults)}}
	g.build()
	return g
}

// Render converts markup to an HTML fragment.
func (g *Gomarkdown) Render(markup string) (string, error) {
	if g.builtAt != g.settings.Version() {
		g.build()
	}

	// gomarkdown parsers keep per-document state and cannot be reused.
	p := parser.NewWithExtensions(g.exts)
	doc := p.Parse([]byte(markup))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	out := markdown.Render(doc, renderer)

	if g.flag("sanitize") {
		out = sanitizer().SanitizeBytes(out)
	}
	return string(out), nil
}

// Extensions returns the parser extensions the next Render will use.
func (g *Gomarkdown) Extensions() parser.Extensions {
	if g.builtAt != g.settings.Version() {
		g.build()
	}
	return g.exts
}

func (g *Gomarkdown) build() {
	exts := parser.Extensions(gomarkdownBase)
	toggles := []struct {
		key string
		ext parser.Extensions
	}{
		{"tables", parser.Tables},
		{"fenced-code", parser.FencedCode},
		{"footnotes", parser.Footnotes},
		{"autolink", parser.Autolink},
		{"strike", parser.Strikethrough},
		{"superscript", parser.SuperSubscript},
		{"heading-ids", parser.AutoHeadingIDs},
		{"hard-wraps", parser.HardLineBreak},
		{"definition-lists", parser.DefinitionLists},
	}
	for _, tg := range toggles {
		if g.flag(tg.key) {
			exts |= tg.ext
		}
	}
	g.exts = exts
	g.builtAt = g.settings.Version()
}
