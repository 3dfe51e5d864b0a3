package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/highlight"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/markup"
	"github.com/alnah/go-md2html/mathengine"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput         = errors.New("no input specified")
	ErrReadCSS         = errors.New("failed to read CSS file")
	ErrInvalidTimeout  = errors.New("invalid timeout")
	ErrStylesheetURL   = errors.New("stylesheet URLs cannot be embedded")
	ErrWriteOutput     = errors.New("failed to write output file")
	ErrOutputDirectory = errors.New("failed to create output directory")
)

// configNotFoundError keeps the requested config name for the hint.
type configNotFoundError struct {
	name string
	err  error
}

func (e *configNotFoundError) Error() string { return e.err.Error() }
func (e *configNotFoundError) Unwrap() error { return e.err }

// assetError keeps the asset root for the hint.
type assetError struct {
	root string
	err  error
}

func (e *assetError) Error() string { return e.err.Error() }
func (e *assetError) Unwrap() error { return e.err }

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}

	if err := mergeFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := validateStylesheets(cfg); err != nil {
		return err
	}

	timeout, err := parseTimeout(cfg.PDF.Timeout)
	if err != nil {
		return err
	}

	logger, err := newLogger(env.Stderr, logLevel(cfg.Logging.Level, flags.common.quiet, flags.common.verbose))
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidField, err)
	}
	defer func() { _ = logger.Sync() }()

	inputs, err := resolveInputPaths(positionalArgs, cfg)
	if err != nil {
		return err
	}

	outputDir := resolveOutputDir(flags.output, cfg)

	files, err := discoverAll(inputs, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found in %v", ErrNoInput, inputs)
	}

	poolSize := md2html.ResolvePoolSize(flags.workers)
	if poolSize > len(files) {
		poolSize = len(files)
	}
	logger.Debug("converting",
		zap.Int("files", len(files)),
		zap.Int("workers", poolSize),
		zap.String("markup", cfg.Engines.Markup),
		zap.String("math", cfg.Engines.Math),
		zap.String("highlighter", cfg.Engines.Highlighter))

	pool := md2html.NewParserPool(poolSize, newParserFactory(cfg, logger))
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing parsers", zap.Error(err))
		}
	}()

	var exporter Exporter
	if cfg.PDF.Enabled {
		exporter = env.NewExporter(timeout, logger)
		defer func() {
			if err := exporter.Close(); err != nil {
				logger.Warn("closing browser", zap.Error(err))
			}
		}()
	}

	start := env.Now()
	results := convertBatch(ctx, pool, files, exporter, logger)
	printResults(results, flags.common.quiet, flags.common.verbose, env)
	logger.Debug("done", zap.Duration("took", env.Now().Sub(start)))

	if err := collectErrors(results); err != nil {
		if errors.Is(err, md2html.ErrAssetRead) {
			err = &assetError{root: cfg.Document.Root, err: err}
		}
		return err
	}
	return nil
}

// loadConfig returns the defaults, or the named config file over them.
func loadConfig(nameOrPath string) (*config.Config, error) {
	if nameOrPath == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(nameOrPath)
	if err != nil {
		err = fmt.Errorf("loading config: %w", err)
		if !fileutil.IsFilePath(nameOrPath) {
			err = &configNotFoundError{name: nameOrPath, err: err}
		}
		return nil, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	doc := flags.document
	if doc.title != "" {
		cfg.Document.Title = doc.title
	}
	if doc.markdownStyle != "" {
		cfg.Document.MarkdownStyle = doc.markdownStyle
	}
	if doc.codeStyle != "" {
		cfg.Document.CodeStyle = doc.codeStyle
	}
	if doc.includeMode != "" {
		cfg.Document.IncludeMode = doc.includeMode
	}
	if doc.root != "" {
		cfg.Document.Root = doc.root
	}
	cfg.Document.Stylesheets = append(cfg.Document.Stylesheets, doc.stylesheets...)
	if doc.css != "" {
		content, err := os.ReadFile(doc.css) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("%w: %v", ErrReadCSS, err)
		}
		if cfg.Document.CSS != "" {
			cfg.Document.CSS += "\n"
		}
		cfg.Document.CSS += string(content)
	}
	if doc.noMath {
		cfg.Document.Math = false
	}
	if doc.noCode {
		cfg.Document.Code = false
	}
	if doc.noHighlight {
		cfg.Document.Highlighting = false
	}

	eng := flags.engines
	if eng.markup != "" {
		cfg.Engines.Markup = eng.markup
	}
	if eng.math != "" {
		cfg.Engines.Math = eng.math
	}
	if eng.highlighter != "" {
		cfg.Engines.Highlighter = eng.highlighter
	}
	if eng.katexDir != "" {
		cfg.Engines.KaTeXDir = eng.katexDir
	}

	if flags.pdf.enabled {
		cfg.PDF.Enabled = true
	}
	if flags.pdf.timeout != "" {
		cfg.PDF.Timeout = flags.pdf.timeout
	}
	return nil
}

// validateStylesheets rejects remote stylesheets in embed mode, which can
// only inline local files.
func validateStylesheets(cfg *config.Config) error {
	if cfg.Document.IncludeMode != "embed" {
		return nil
	}
	for _, s := range cfg.Document.Stylesheets {
		if fileutil.IsURL(s) {
			return fmt.Errorf("%w: %s (use --include-mode network or local)", ErrStylesheetURL, s)
		}
	}
	return nil
}

// parseTimeout parses the PDF timeout; empty means the exporter default.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q (must be positive)", ErrInvalidTimeout, s)
	}
	return d, nil
}

// documentSettings maps the document config onto parser settings.
func documentSettings(doc config.DocumentConfig) map[string]string {
	return map[string]string{
		md2html.KeyEnableMath:         boolSetting(doc.Math),
		md2html.KeyEnableCode:         boolSetting(doc.Code),
		md2html.KeyEnableHighlighting: boolSetting(doc.Highlighting),
		md2html.KeyMarkdownStyle:      doc.MarkdownStyle,
		md2html.KeyCodeStyle:          doc.CodeStyle,
		md2html.KeyIncludeMode:        doc.IncludeMode,
		md2html.KeyTitle:              doc.Title,
	}
}

func boolSetting(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// configurableMath is a math engine taking string options.
type configurableMath interface {
	md2html.MathEngine
	ApplySettings(map[string]string) error
}

// newParserFactory returns a factory building parsers from cfg. Each parser
// owns its engines; a KaTeX engine shares the compiled library with the
// others of the pool.
func newParserFactory(cfg *config.Config, logger *zap.Logger) md2html.ParserFactory {
	return func() (*md2html.Parser, error) {
		markupEngine, err := newMarkupEngine(cfg)
		if err != nil {
			return nil, err
		}
		mathEngine, err := newMathEngine(cfg, logger)
		if err != nil {
			return nil, err
		}

		opts := []md2html.Option{
			md2html.WithLogger(logger),
			md2html.WithRoot(cfg.Document.Root),
			md2html.WithMarkup(markupEngine),
			md2html.WithMath(mathEngine),
			md2html.WithHighlighter(newHighlighter(cfg)),
			md2html.WithSettings(documentSettings(cfg.Document)),
		}
		for _, s := range cfg.Document.Stylesheets {
			opts = append(opts, md2html.WithStylesheet(s))
		}

		p, err := md2html.NewParser(opts...)
		if err != nil {
			if closer, ok := mathEngine.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
			return nil, err
		}
		if cfg.Document.CSS != "" {
			p.AddCustomCSS(cfg.Document.CSS)
		}
		return p, nil
	}
}

func newMarkupEngine(cfg *config.Config) (md2html.MarkupEngine, error) {
	var engine md2html.MarkupEngine
	switch cfg.Engines.Markup {
	case config.MarkupGomarkdown:
		engine = markup.NewGomarkdown()
	default:
		engine = markup.NewGoldmark()
	}
	if len(cfg.Markup) > 0 {
		if err := engine.ApplySettings(cfg.Markup); err != nil {
			return nil, fmt.Errorf("markup options: %w", err)
		}
	}
	return engine, nil
}

func newMathEngine(cfg *config.Config, logger *zap.Logger) (md2html.MathEngine, error) {
	var engine configurableMath
	switch cfg.Engines.Math {
	case config.MathKaTeX:
		k, err := mathengine.NewKaTeX(cfg.Engines.KaTeXDir, mathengine.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		engine = k
	default:
		engine = mathengine.NewMathML(nil, mathengine.WithLogger(logger))
	}
	if len(cfg.Math) > 0 {
		if err := engine.ApplySettings(cfg.Math); err != nil {
			if closer, ok := engine.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
			return nil, fmt.Errorf("math options: %w", err)
		}
	}
	return engine, nil
}

func newHighlighter(cfg *config.Config) md2html.CodeHighlighter {
	if cfg.Engines.Highlighter == config.HighlighterChroma {
		return highlight.NewChroma()
	}
	return highlight.NewClient()
}

// resolveInputPaths determines the input paths from args or config.
func resolveInputPaths(args []string, cfg *config.Config) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if cfg.Input.DefaultDir != "" {
		return []string{cfg.Input.DefaultDir}, nil
	}
	return nil, ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}
