package md2html

import (
	"fmt"
	"strings"

	"github.com/alnah/go-md2html/highlight"
)

// identityMarkup returns its input unchanged.
type identityMarkup struct{}

func (identityMarkup) Render(markup string) (string, error)  { return markup, nil }
func (identityMarkup) ApplySettings(map[string]string) error { return nil }

// suffixMarkup appends a fixed suffix to the rendered text.
type suffixMarkup struct{ suffix string }

func (m suffixMarkup) Render(markup string) (string, error) { return markup + m.suffix, nil }
func (suffixMarkup) ApplySettings(map[string]string) error  { return nil }

// rewriteMarkup replaces every occurrence of old with new.
type rewriteMarkup struct{ old, new string }

func (m rewriteMarkup) Render(markup string) (string, error) {
	return strings.ReplaceAll(markup, m.old, m.new), nil
}
func (rewriteMarkup) ApplySettings(map[string]string) error { return nil }

// bracketMath wraps every expression in square brackets.
type bracketMath struct{}

func (bracketMath) Render(expression string, _ bool) (string, error) {
	return "[" + expression + "]", nil
}

// identityMath returns the expression unchanged.
type identityMath struct{}

func (identityMath) Render(expression string, _ bool) (string, error) { return expression, nil }

// taggingMath wraps inline expressions in <i> and display ones in <d>.
type taggingMath struct{}

func (taggingMath) Render(expression string, display bool) (string, error) {
	if display {
		return "<d>" + expression + "</d>", nil
	}
	return "<i>" + expression + "</i>", nil
}

// failingMath rejects every expression.
type failingMath struct{}

func (failingMath) Render(expression string, _ bool) (string, error) {
	return "", fmt.Errorf("%w: cannot parse %q", ErrMathParse, expression)
}

// stylesheetMath needs the stylesheet at path.
type stylesheetMath struct {
	identityMath
	path string
}

func (m stylesheetMath) StylesheetPath() string { return m.path }

// closingMath counts Close calls.
type closingMath struct {
	identityMath
	closed int
	err    error
}

func (m *closingMath) Close() error {
	m.closed++
	return m.err
}

// recordingHighlighter records calls and marks its output.
type recordingHighlighter struct {
	heads      []string
	highlights int
}

func (h *recordingHighlighter) Head(style string, _ highlight.AssetResolver) (string, error) {
	h.heads = append(h.heads, style)
	return "<code-head " + style + ">\n", nil
}

func (h *recordingHighlighter) Highlight(html string) (string, error) {
	h.highlights++
	return strings.ToUpper(html), nil
}

var (
	_ MarkupEngine       = identityMarkup{}
	_ MarkupEngine       = suffixMarkup{}
	_ MarkupEngine       = rewriteMarkup{}
	_ MathEngine         = identityMath{}
	_ MathEngine         = taggingMath{}
	_ MathEngine         = bracketMath{}
	_ MathEngine         = failingMath{}
	_ MathEngine         = (*closingMath)(nil)
	_ stylesheetProvider = stylesheetMath{}
	_ CodeHighlighter    = (*recordingHighlighter)(nil)
)
