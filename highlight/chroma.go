package highlight

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/htmlutil"
)

// Chroma highlights fenced code blocks at render time with chroma.
// Tokens get CSS classes; Head supplies the stylesheet for a style.
type Chroma struct {
	formatter *chromahtml.Formatter
}

// NewChroma creates a Chroma highlighter. Extra formatter options, such as
// chromahtml.WithLineNumbers, are applied after the class-based defaults.
func NewChroma(opts ...chromahtml.Option) *Chroma {
	opts = append([]chromahtml.Option{chromahtml.WithClasses(true)}, opts...)
	return &Chroma{formatter: chromahtml.New(opts...)}
}

// Styles returns the available style names, sorted.
func Styles() []string {
	names := make([]string, 0, len(styles.Registry))
	for name := range styles.Registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Head returns an inline stylesheet with the CSS classes of style. The
// resolver is not needed: the CSS is generated.
func (c *Chroma) Head(style string, _ AssetResolver) (string, error) {
	s, ok := styles.Registry[style]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	var css strings.Builder
	if err := c.formatter.WriteCSS(&css, s); err != nil {
		return "", fmt.Errorf("writing %s css: %w", style, err)
	}
	return assets.InlineStyle(css.String()), nil
}

// Highlight re-renders every <pre><code class="language-x"> block of html.
// Blocks in a language chroma does not know are rendered as plain text.
func (c *Chroma) Highlight(html string) (string, error) {
	return htmlutil.ReplaceCodeBlocks(html, c.block)
}

func (c *Chroma) block(b htmlutil.CodeBlock) (string, error) {
	lexer := lexers.Get(b.Language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, b.Code)
	if err != nil {
		return "", fmt.Errorf("tokenising %s block: %w", b.Language, err)
	}

	var out strings.Builder
	if err := c.formatter.Format(&out, styles.Fallback, it); err != nil {
		return "", fmt.Errorf("formatting %s block: %w", b.Language, err)
	}
	return out.String(), nil
}
