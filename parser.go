package md2html

import (
	"fmt"
	"html"
	"io"
	"os"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/alnah/go-md2html/highlight"
	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/extract"
	"github.com/alnah/go-md2html/markup"
	"github.com/alnah/go-md2html/mathengine"
	"github.com/alnah/go-md2html/settings"
)

// Parser setting keys.
const (
	KeyEnableMath         = "enable-math"
	KeyEnableCode         = "enable-code"
	KeyEnableHighlighting = "enable-highlighting"
	KeyMarkdownStyle      = "markdown-style"
	KeyCodeStyle          = "code-style"
	KeyIncludeMode        = "include-mode"
	KeyTitle              = "title"
)

// StyleNone as markdown-style or code-style leaves the theme out.
const StyleNone = "none"

// ThemesPath is the logical asset directory of markdown themes.
const ThemesPath = "style/themes"

// Schema lists the options a Parser recognizes.
var Schema = settings.Schema{
	KeyEnableMath:         settings.Bool,
	KeyEnableCode:         settings.Bool,
	KeyEnableHighlighting: settings.Bool,
	KeyMarkdownStyle:      settings.String,
	KeyCodeStyle:          settings.String,
	KeyIncludeMode:        settings.OneOf(string(assets.Embed), string(assets.Local), string(assets.Network)),
	KeyTitle:              settings.String,
}

// Defaults are the options of a new Parser.
var Defaults = map[string]string{
	KeyEnableMath:         "1",
	KeyEnableCode:         "1",
	KeyEnableHighlighting: "1",
	KeyMarkdownStyle:      "github",
	KeyCodeStyle:          "github",
	KeyIncludeMode:        string(assets.Network),
	KeyTitle:              "",
}

const (
	preamble = "<!DOCTYPE html>\n<html>\n<head>\n<meta charset='utf-8'/>\n"
	bodyOpen = "</head>\n<body>\n"
	closing  = "</body>\n</html>"
)

// Parser turns Markdown with $…$ and $$…$$ math into HTML.
//
// A Parser owns its markup engine, math engine and code highlighter:
// replacing one closes the previous handle when it implements io.Closer.
// A Parser is not safe for concurrent use; see ParserPool.
type Parser struct {
	settings *settings.Settings

	root        string
	markup      MarkupEngine
	math        MathEngine
	highlighter CodeHighlighter
	extractor   *extract.Extractor
	stylesheets []string
	customCSS   string
	log         *zap.Logger
	overrides   map[string]string
}

// Option configures a Parser.
type Option func(*Parser)

// WithRoot sets the directory assets are resolved against.
func WithRoot(root string) Option {
	return func(p *Parser) {
		p.root = root
	}
}

// WithMarkup sets the markup engine. The Parser takes ownership.
// Panics if m is nil (programmer error).
func WithMarkup(m MarkupEngine) Option {
	if m == nil {
		panic("md2html: WithMarkup engine must not be nil")
	}
	return func(p *Parser) {
		p.markup = m
	}
}

// WithMath sets the math engine. The Parser takes ownership.
// Panics if m is nil (programmer error).
func WithMath(m MathEngine) Option {
	if m == nil {
		panic("md2html: WithMath engine must not be nil")
	}
	return func(p *Parser) {
		p.math = m
	}
}

// WithHighlighter sets the code highlighter. The Parser takes ownership.
// Panics if h is nil (programmer error).
func WithHighlighter(h CodeHighlighter) Option {
	if h == nil {
		panic("md2html: WithHighlighter highlighter must not be nil")
	}
	return func(p *Parser) {
		p.highlighter = h
	}
}

// WithStylesheet adds a user stylesheet. May be given several times.
func WithStylesheet(file string) Option {
	return func(p *Parser) {
		p.stylesheets = append(p.stylesheets, file)
	}
}

// WithLogger sets the logger. The default math engine logs through it too.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.log = logger
		}
	}
}

// WithSettings configures several options at once. NewParser fails if any
// entry is rejected.
func WithSettings(values map[string]string) Option {
	return func(p *Parser) {
		if p.overrides == nil {
			p.overrides = make(map[string]string, len(values))
		}
		for k, v := range values {
			p.overrides[k] = v
		}
	}
}

// NewParser creates a Parser. Engines not given as options default to
// Goldmark markup, MathML math and the highlight.js client highlighter.
// Returns ErrConfigurationKey or ErrConfigurationValue if WithSettings holds
// an entry the schema rejects.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{
		settings:  settings.New(Schema, Defaults),
		extractor: extract.Default(),
		log:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overrides != nil {
		if err := p.settings.Apply(p.overrides); err != nil {
			return nil, err
		}
		p.overrides = nil
	}

	if p.markup == nil {
		p.markup = markup.NewGoldmark()
	}
	if p.math == nil {
		p.math = mathengine.NewMathML(nil, mathengine.WithLogger(p.log))
	}
	if p.highlighter == nil {
		p.highlighter = highlight.NewClient()
	}

	return p, nil
}

// docSettings is one consistent read of the options a render needs.
type docSettings struct {
	math          bool
	code          bool
	highlighting  bool
	markdownStyle string
	codeStyle     string
	title         string
	mode          assets.IncludeMode
}

// document reads every option Render depends on. Missing keys and an
// unknown include mode are reported together.
func (p *Parser) document() (docSettings, error) {
	var errs error
	flag := func(key string) bool {
		v, err := p.settings.Bool(key)
		errs = multierr.Append(errs, err)
		return v
	}
	text := func(key string) string {
		v, err := p.settings.Get(key)
		errs = multierr.Append(errs, err)
		return v
	}

	ds := docSettings{
		math:          flag(KeyEnableMath),
		code:          flag(KeyEnableCode),
		highlighting:  flag(KeyEnableHighlighting),
		markdownStyle: text(KeyMarkdownStyle),
		codeStyle:     text(KeyCodeStyle),
		title:         text(KeyTitle),
	}
	mode := text(KeyIncludeMode)
	if errs != nil {
		return docSettings{}, errs
	}

	m, err := assets.ParseIncludeMode(mode)
	if err != nil {
		return docSettings{}, err
	}
	ds.mode = m
	return ds, nil
}

// Render converts markup to a complete HTML document.
// Configuration, asset and math errors abort the render; no partial document
// is returned.
func (p *Parser) Render(markup string) (doc string, err error) {
	defer recoverInternal(&err)

	ds, err := p.document()
	if err != nil {
		return "", err
	}

	head, err := p.head(ds)
	if err != nil {
		return "", err
	}

	body, err := p.snippet(markup, ds.math, ds.highlighting)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(preamble) + len(head) + len(bodyOpen) + len(body) + len(closing) + len(ds.title) + 16)
	b.WriteString(preamble)
	if ds.title != "" {
		b.WriteString("<title>" + html.EscapeString(ds.title) + "</title>\n")
	}
	b.WriteString(head)
	b.WriteString(bodyOpen)
	b.WriteString(body)
	b.WriteString(closing)
	return b.String(), nil
}

// RenderSnippet converts markup to an HTML fragment with no document shell
// and no head assets.
func (p *Parser) RenderSnippet(markup string) (out string, err error) {
	defer recoverInternal(&err)

	math, err := p.settings.Bool(KeyEnableMath)
	if err != nil {
		return "", err
	}
	highlighting, err := p.settings.Bool(KeyEnableHighlighting)
	if err != nil {
		return "", err
	}
	return p.snippet(markup, math, highlighting)
}

// RenderFile reads path and renders it as a document. Trailing whitespace of
// the file is dropped.
func (p *Parser) RenderFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is provided by the caller
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrFile, path, err)
	}
	return p.Render(strings.TrimRightFunc(string(data), unicode.IsSpace))
}

// RenderFileTo renders the file at path and writes the document to dest,
// truncating it. dest is left untouched when rendering fails.
func (p *Parser) RenderFileTo(path, dest string) error {
	doc, err := p.RenderFile(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) // #nosec G302 G304 -- output file, path is provided by the caller
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrFile, dest, err)
	}
	if _, err := io.WriteString(f, doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: writing %s: %v", ErrFile, dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrFile, dest, err)
	}
	return nil
}

// head assembles the fragments between the preamble and the body:
// math stylesheet, markdown theme, code theme, user stylesheets, custom CSS.
func (p *Parser) head(ds docSettings) (string, error) {
	r, err := assets.NewResolver(p.root, ds.mode)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	if ds.math {
		if sp, ok := p.math.(stylesheetProvider); ok && sp.StylesheetPath() != "" {
			frag, err := r.Stylesheet(sp.StylesheetPath())
			if err != nil {
				return "", fmt.Errorf("math stylesheet: %w", err)
			}
			b.WriteString(frag)
		}
	}

	if ds.markdownStyle != StyleNone {
		frag, err := r.Stylesheet(ThemesPath + "/" + ds.markdownStyle)
		if err != nil {
			return "", fmt.Errorf("markdown style %q: %w", ds.markdownStyle, err)
		}
		b.WriteString(frag)
	}

	if ds.code && ds.codeStyle != StyleNone {
		frag, err := p.highlighter.Head(ds.codeStyle, r)
		if err != nil {
			return "", fmt.Errorf("code style %q: %w", ds.codeStyle, err)
		}
		b.WriteString(frag)
	}

	for _, file := range p.stylesheets {
		frag, err := r.UserStylesheet(file)
		if err != nil {
			return "", fmt.Errorf("stylesheet %s: %w", file, err)
		}
		b.WriteString(frag)
	}

	if p.customCSS != "" {
		b.WriteString(assets.InlineStyle(p.customCSS))
	}

	p.log.Debug("Assembled document head",
		zap.String("mode", ds.mode.String()),
		zap.Int("stylesheets", len(p.stylesheets)))

	return b.String(), nil
}

// snippet runs the body pipeline: extract, markup, math, reinsert, highlight.
func (p *Parser) snippet(markup string, math, highlighting bool) (string, error) {
	var (
		out string
		err error
	)
	if math {
		out, err = p.renderWithMath(markup)
	} else {
		out, err = p.renderMarkup(markup)
	}
	if err != nil {
		return "", err
	}

	if highlighting {
		out, err = p.highlighter.Highlight(out)
		if err != nil {
			return "", fmt.Errorf("highlighting code: %w", err)
		}
	}
	return out, nil
}

func (p *Parser) renderMarkup(markup string) (string, error) {
	out, err := p.markup.Render(markup)
	if err != nil {
		return "", fmt.Errorf("rendering markup: %w", err)
	}
	return out, nil
}

func (p *Parser) renderWithMath(markup string) (string, error) {
	text, table := p.extractor.Extract(markup)
	p.log.Debug("Extracted equations",
		zap.Int("inline", len(table.Inline)),
		zap.Int("display", len(table.Display)))

	out, err := p.renderMarkup(text)
	if err != nil {
		return "", err
	}
	if table.Len() == 0 {
		return out, nil
	}

	if err := p.renderEquations(table.Inline, false); err != nil {
		return "", err
	}
	if err := p.renderEquations(table.Display, true); err != nil {
		return "", err
	}
	return p.extractor.Reinsert(out, table), nil
}

// renderEquations replaces every expression of entries with its HTML.
func (p *Parser) renderEquations(entries []string, display bool) error {
	for i, expr := range entries {
		out, err := p.math.Render(expr, display)
		if err != nil {
			return fmt.Errorf("rendering equation %q: %w", expr, err)
		}
		entries[i] = out
	}
	return nil
}

// Configure sets one option. Unknown keys return ErrConfigurationKey and
// unparsable values ErrConfigurationValue; the options are unchanged on error.
func (p *Parser) Configure(key, value string) error {
	return p.settings.Configure(key, value)
}

// ApplySettings configures several options at once. Either every entry is
// applied or, on error, none is.
func (p *Parser) ApplySettings(values map[string]string) error {
	return p.settings.Apply(values)
}

// Get returns the raw value of one option.
func (p *Parser) Get(key string) (string, error) {
	return p.settings.Get(key)
}

// Settings returns a copy of the current options.
func (p *Parser) Settings() map[string]string {
	return p.settings.Settings()
}

// ReplaceSettings swaps every option for values without validation.
// Render reports keys that are missing afterwards.
func (p *Parser) ReplaceSettings(values map[string]string) {
	p.settings.ReplaceSettings(values)
}

// Markup returns the markup engine.
func (p *Parser) Markup() MarkupEngine {
	return p.markup
}

// SetMarkup replaces the markup engine, closing the previous one.
// Panics if m is nil (programmer error).
func (p *Parser) SetMarkup(m MarkupEngine) error {
	if m == nil {
		panic("md2html: SetMarkup engine must not be nil")
	}
	old := p.markup
	p.markup = m
	return closeReplaced(old, m)
}

// Math returns the math engine.
func (p *Parser) Math() MathEngine {
	return p.math
}

// SetMath replaces the math engine, closing the previous one.
// Panics if m is nil (programmer error).
func (p *Parser) SetMath(m MathEngine) error {
	if m == nil {
		panic("md2html: SetMath engine must not be nil")
	}
	old := p.math
	p.math = m
	return closeReplaced(old, m)
}

// Highlighter returns the code highlighter.
func (p *Parser) Highlighter() CodeHighlighter {
	return p.highlighter
}

// SetHighlighter replaces the code highlighter, closing the previous one.
// Panics if h is nil (programmer error).
func (p *Parser) SetHighlighter(h CodeHighlighter) error {
	if h == nil {
		panic("md2html: SetHighlighter highlighter must not be nil")
	}
	old := p.highlighter
	p.highlighter = h
	return closeReplaced(old, h)
}

// Root returns the asset root directory.
func (p *Parser) Root() string {
	return p.root
}

// SetRoot sets the asset root directory. An empty root uses built-in assets.
func (p *Parser) SetRoot(root string) {
	p.root = root
}

// AddStylesheet appends a user stylesheet, included after the themes.
func (p *Parser) AddStylesheet(file string) {
	p.stylesheets = append(p.stylesheets, file)
}

// ClearStylesheets removes every user stylesheet.
func (p *Parser) ClearStylesheets() {
	p.stylesheets = nil
}

// Stylesheets returns a copy of the user stylesheets.
func (p *Parser) Stylesheets() []string {
	return slices.Clone(p.stylesheets)
}

// AddCustomCSS appends css to the inline style block closing the head.
func (p *Parser) AddCustomCSS(css string) {
	if p.customCSS != "" && !strings.HasSuffix(p.customCSS, "\n") {
		p.customCSS += "\n"
	}
	p.customCSS += css
}

// ClearCustomCSS removes all custom CSS.
func (p *Parser) ClearCustomCSS() {
	p.customCSS = ""
}

// CustomCSS returns the accumulated custom CSS.
func (p *Parser) CustomCSS() string {
	return p.customCSS
}

// Close closes every owned engine that implements io.Closer.
func (p *Parser) Close() error {
	return multierr.Combine(
		closeEngine(p.markup),
		closeEngine(p.math),
		closeEngine(p.highlighter),
	)
}

// closeReplaced closes old unless it is the engine replacing it.
func closeReplaced(old, replacement any) error {
	if old == replacement {
		return nil
	}
	return closeEngine(old)
}

func closeEngine(engine any) error {
	if c, ok := engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// recoverInternal turns a panic into an ErrInternal error.
func recoverInternal(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrInternal, r)
	}
}
