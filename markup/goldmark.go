package markup

import (
	"bytes"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-md2html/settings"
)

// ErrConversion indicates the Markdown engine failed to produce HTML.
var ErrConversion = errors.New("markdown conversion failed")

// GoldmarkSchema lists the options of the goldmark engine.
var GoldmarkSchema = settings.Schema{
	"tables":      settings.Bool,
	"footnotes":   settings.Bool,
	"autolink":    settings.Bool,
	"strike":      settings.Bool,
	"task-lists":  settings.Bool,
	"typographer": settings.Bool,
	"heading-ids": settings.Bool,
	"hard-wraps":  settings.Bool,
	"xhtml":       settings.Bool,
	"unsafe-html": settings.Bool,
	"highlight":   settings.Bool,
	"sanitize":    settings.Bool,
}

// GoldmarkDefaults are GitHub-flavoured defaults.
var GoldmarkDefaults = map[string]string{
	"tables":      "1",
	"footnotes":   "1",
	"autolink":    "1",
	"strike":      "1",
	"task-lists":  "1",
	"typographer": "0",
	"heading-ids": "1",
	"hard-wraps":  "0",
	"xhtml":       "0",
	"unsafe-html": "0",
	"highlight":   "0",
	"sanitize":    "0",
}

// Goldmark renders CommonMark with GitHub extensions using goldmark.
// Not safe for concurrent use.
type Goldmark struct {
	base
	md      goldmark.Markdown
	builtAt uint64
}

// NewGoldmark creates a goldmark engine with GoldmarkDefaults.
func NewGoldmark() *Goldmark {
	g := &Goldmark{base: base{settings: settings.New(GoldmarkSchema, GoldmarkDefaults)}}
	g.build()
	return g
}

// Render converts markup to an HTML fragment.
func (g *Goldmark) Render(markup string) (string, error) {
	if g.builtAt != g.settings.Version() {
		g.build()
	}

	var buf bytes.Buffer
	if err := g.md.Convert([]byte(markup), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}

	if g.flag("sanitize") {
		return sanitizer().SanitizeReader(&buf).String(), nil
	}
	return buf.String(), nil
}

func (g *Goldmark) build() {
	var exts []goldmark.Extender
	if g.flag("tables") {
		exts = append(exts, extension.Table)
	}
	if g.flag("strike") {
		exts = append(exts, extension.Strikethrough)
	}
	if g.flag("autolink") {
		exts = append(exts, extension.Linkify)
	}
	if g.flag("task-lists") {
		exts = append(exts, extension.TaskList)
	}
	if g.flag("footnotes") {
		exts = append(exts, extension.Footnote)
	}
	if g.flag("typographer") {
		exts = append(exts, extension.Typographer)
	}
	if g.flag("highlight") {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true),
			),
		))
	}

	var parserOpts []parser.Option
	if g.flag("heading-ids") {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	var rendererOpts []renderer.Option
	if g.flag("hard-wraps") {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if g.flag("xhtml") {
		rendererOpts = append(rendererOpts, html.WithXHTML())
	}
	if g.flag("unsafe-html") {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	g.md = goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	g.builtAt = g.settings.Version()
}
