package md2html

import (
	"github.com/alnah/go-md2html/highlight"
	"github.com/alnah/go-md2html/markup"
	"github.com/alnah/go-md2html/mathengine"
)

// MarkupEngine converts lightweight markup to an HTML fragment.
// Engines must leave $ characters and the text between them alone.
type MarkupEngine interface {
	Render(markup string) (string, error)
	ApplySettings(values map[string]string) error
}

// MathEngine converts one math expression to an HTML fragment.
type MathEngine interface {
	Render(expression string, displayMode bool) (string, error)
}

// CodeHighlighter supplies the head fragments for a code style and an
// optional pass over the rendered body.
type CodeHighlighter interface {
	Head(style string, r highlight.AssetResolver) (string, error)
	Highlight(html string) (string, error)
}

// stylesheetProvider is implemented by math engines whose output needs a
// stylesheet. StylesheetPath returns a logical asset path, or "" for none.
type stylesheetProvider interface {
	StylesheetPath() string
}

// Compile-time interface implementation checks.
var (
	_ MarkupEngine       = (*markup.Goldmark)(nil)
	_ MarkupEngine       = (*markup.Gomarkdown)(nil)
	_ MathEngine         = (*mathengine.KaTeX)(nil)
	_ MathEngine         = (*mathengine.MathML)(nil)
	_ stylesheetProvider = (*mathengine.KaTeX)(nil)
	_ CodeHighlighter    = (*highlight.Client)(nil)
	_ CodeHighlighter    = (*highlight.Chroma)(nil)
)
