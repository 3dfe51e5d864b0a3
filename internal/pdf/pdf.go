// Package pdf prints assembled HTML documents to PDF with headless Chrome.
//
// Chrome is driven through go-rod and started lazily on the first export.
// Rod downloads Chromium on first run when none is found; set ROD_BROWSER_BIN
// to use a pre-installed browser.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/htmlutil"
	"github.com/alnah/go-md2html/internal/process"
)

// Sentinel errors for PDF export.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)

// DefaultTimeout bounds page load when the caller sets no deadline.
const DefaultTimeout = 30 * time.Second

// Page dimensions in inches (US Letter).
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
	marginInches      = 0.5
)

// Renderer prints a local HTML file to PDF.
type Renderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ Renderer = (*rodRenderer)(nil)

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithRenderer replaces the Chrome renderer. Panics on nil.
func WithRenderer(r Renderer) Option {
	if r == nil {
		panic("pdf: nil renderer")
	}
	return func(e *Exporter) { e.renderer = r }
}

// WithTempDir sets the directory receiving intermediate HTML files.
func WithTempDir(dir string) Option {
	return func(e *Exporter) { e.tempDir = dir }
}

// Exporter converts HTML documents to PDF. It is safe for concurrent use:
// every export opens its own browser page.
type Exporter struct {
	renderer Renderer
	tempDir  string
	log      *zap.Logger
}

// NewExporter creates an exporter whose page loads time out after timeout
// (DefaultTimeout if not positive).
func NewExporter(timeout time.Duration, opts ...Option) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Exporter{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.renderer == nil {
		e.renderer = newRodRenderer(timeout, e.log)
	}
	return e
}

// Export prints htmlContent to PDF. Relative links are resolved against
// sourceDir so local images and stylesheets load from the temp file.
func (e *Exporter) Export(ctx context.Context, htmlContent, sourceDir string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if sourceDir != "" {
		rewritten, err := htmlutil.AbsolutizeLinks(htmlContent, sourceDir)
		if err != nil {
			return nil, fmt.Errorf("resolving links: %w", err)
		}
		htmlContent = rewritten
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(e.tempDir, htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	start := time.Now()
	data, err := e.renderer.RenderFromFile(ctx, tmpPath)
	if err != nil {
		return nil, err
	}
	e.log.Debug("printed pdf", zap.Int("bytes", len(data)), zap.Duration("took", time.Since(start)))
	return data, nil
}

// Close releases browser resources.
func (e *Exporter) Close() error {
	return e.renderer.Close()
}

// rodRenderer implements Renderer using go-rod.
type rodRenderer struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
	log      *zap.Logger
}

func newRodRenderer(timeout time.Duration, logger *zap.Logger) *rodRenderer {
	return &rodRenderer{timeout: timeout, log: logger}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	r.log.Debug("browser started", zap.Int("pid", l.PID()))
	return browser, nil
}

// Close closes the browser and kills its process tree.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Kill()
	r.launcher.Cleanup()
	r.browser = nil
	r.launcher = nil
	return err
}

// RenderFromFile opens a local HTML file in headless Chrome and prints it.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	reader, err := page.Context(ctx).PDF(printOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// printOptions returns US Letter pages with uniform margins and backgrounds.
func printOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
