package mathengine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-md2html/settings"
)

// fakeKaTeX mimics the katex global: it echoes the expression and throws a
// ParseError for an unterminated \frac.
const fakeKaTeX = `
var katex = {
	renderToString: function (expr, opts) {
		if (expr.indexOf("\\frac{") >= 0 && expr.indexOf("}") < 0) {
			var e = new Error("KaTeX parse error: Expected '}', got 'EOF' at end of input: \\frac{");
			e.name = "ParseError";
			throw e;
		}
		var cls = opts.displayMode ? "katex-display" : "katex";
		return '<span class="' + cls + '" data-output="' + opts.output + '">' + expr + '</span>';
	}
};
`

func writeScript(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ScriptName), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return dir
}

func newTestKaTeX(t *testing.T, opts ...Option) *KaTeX {
	t.Helper()

	k, err := NewKaTeX(writeScript(t, fakeKaTeX), opts...)
	if err != nil {
		t.Fatalf("NewKaTeX() error = %v", err)
	}
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func sandboxCount() int {
	sandboxesMu.Lock()
	defer sandboxesMu.Unlock()
	return len(sandboxes)
}

func TestNewKaTeX(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
		write  bool
	}{
		{name: "missing script"},
		{name: "syntax error", script: "var katex = {", write: true},
		{name: "no katex global", script: "var other = 1;", write: true},
		{name: "no renderToString", script: "var katex = {};", write: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.write {
				dir = writeScript(t, tt.script)
			}
			_, err := NewKaTeX(dir)
			if !errors.Is(err, ErrFile) {
				t.Errorf("NewKaTeX() error = %v, want ErrFile", err)
			}
		})
	}
}

func TestKaTeX_Render(t *testing.T) {
	t.Parallel()

	k := newTestKaTeX(t)

	tests := []struct {
		name    string
		expr    string
		display bool
		want    string
	}{
		{name: "inline", expr: "x^2", want: `<span class="katex" data-output="htmlAndMathml">x^2</span>`},
		{name: "display", expr: "E=mc^2", display: true, want: `<span class="katex-display" data-output="htmlAndMathml">E=mc^2</span>`},
	}

	for _, tt := range tests {
		got, err := k.Render(tt.expr, tt.display)
		if err != nil {
			t.Fatalf("%s: Render() error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: Render() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestKaTeX_AllDisplayMath(t *testing.T) {
	t.Parallel()

	k := newTestKaTeX(t)
	if err := k.Configure("all-display-math", "1"); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	got, err := k.Render("x", false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "katex-display") {
		t.Errorf("Render() = %q, want display mode", got)
	}
}

func TestKaTeX_Output(t *testing.T) {
	t.Parallel()

	k := newTestKaTeX(t)
	if err := k.Configure("output", "mathml"); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	got, err := k.Render("x", false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, `data-output="mathml"`) {
		t.Errorf("Render() = %q, want mathml output option", got)
	}

	if err := k.Configure("output", "svg"); !errors.Is(err, settings.ErrInvalidValue) {
		t.Errorf("Configure(output, svg) error = %v, want ErrInvalidValue", err)
	}
}

func TestKaTeX_ParseError(t *testing.T) {
	t.Parallel()

	t.Run("throw-on-error", func(t *testing.T) {
		t.Parallel()

		k := newTestKaTeX(t)
		_, err := k.Render(`\frac{`, false)
		if !errors.Is(err, ErrParse) {
			t.Fatalf("Render() error = %v, want ErrParse", err)
		}
		if strings.Contains(err.Error(), "ParseError:") {
			t.Errorf("Render() error = %q, want ParseError prefix stripped", err)
		}
		if !strings.Contains(err.Error(), "KaTeX parse error") {
			t.Errorf("Render() error = %q, want KaTeX message", err)
		}
	})

	t.Run("fallback fragment", func(t *testing.T) {
		t.Parallel()

		k := newTestKaTeX(t)
		err := k.ApplySettings(map[string]string{
			"throw-on-error": "0",
			"error-color":    "#0000FF",
		})
		if err != nil {
			t.Fatalf("ApplySettings() error = %v", err)
		}

		got, err := k.Render(`\frac{`, false)
		if err != nil {
			t.Fatalf("Render() error = %v, want none", err)
		}
		if !strings.Contains(got, "color: #0000FF") {
			t.Errorf("Render() = %q, want error color", got)
		}
		if !strings.Contains(got, `>\frac{</span>`) {
			t.Errorf("Render() = %q, want escaped expression", got)
		}
	})

	t.Run("logs when enabled", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zapcore.WarnLevel)
		k := newTestKaTeX(t, WithLogger(zap.New(core)))
		err := k.ApplySettings(map[string]string{"throw-on-error": "0", "log-errors": "1"})
		if err != nil {
			t.Fatalf("ApplySettings() error = %v", err)
		}

		if _, err := k.Render(`\frac{`, true); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		entries := logs.FilterField(zap.String("expression", `\frac{`)).All()
		if len(entries) != 1 {
			t.Fatalf("logged %d entries, want 1", len(entries))
		}
		if entries[0].Level != zapcore.WarnLevel {
			t.Errorf("level = %v, want warn", entries[0].Level)
		}
	})

	t.Run("silent by default", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zapcore.DebugLevel)
		k := newTestKaTeX(t, WithLogger(zap.New(core)))
		if err := k.Configure("throw-on-error", "0"); err != nil {
			t.Fatalf("Configure() error = %v", err)
		}
		if _, err := k.Render(`\frac{`, false); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if logs.Len() != 0 {
			t.Errorf("logged %d entries, want 0", logs.Len())
		}
	})
}

func TestKaTeX_SharedSandbox(t *testing.T) {
	// Not parallel: inspects the process-wide sandbox table.
	dir := writeScript(t, fakeKaTeX)
	before := sandboxCount()

	a, err := NewKaTeX(dir)
	if err != nil {
		t.Fatalf("NewKaTeX() error = %v", err)
	}
	b, err := NewKaTeX(dir)
	if err != nil {
		t.Fatalf("NewKaTeX() error = %v", err)
	}
	if a.box != b.box {
		t.Error("engines loading the same script use different runtimes")
	}
	if got := sandboxCount(); got != before+1 {
		t.Errorf("sandboxCount() = %d, want %d", got, before+1)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := b.Render("y", false); err != nil {
		t.Errorf("Render() after sibling Close error = %v", err)
	}
	if _, err := a.Render("y", false); !errors.Is(err, ErrFile) {
		t.Errorf("Render() after Close error = %v, want ErrFile", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := sandboxCount(); got != before {
		t.Errorf("sandboxCount() = %d after last Close, want %d", got, before)
	}
}

func TestKaTeX_ConcurrentRender(t *testing.T) {
	t.Parallel()

	dir := writeScript(t, fakeKaTeX)
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k, err := NewKaTeX(dir)
			if err != nil {
				errs <- err
				return
			}
			defer func() { _ = k.Close() }()
			for range 20 {
				if _, err := k.Render("a+b", false); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent render error: %v", err)
	}
}

func TestKaTeX_SetDir(t *testing.T) {
	t.Parallel()

	k := newTestKaTeX(t)
	old := k.Dir()

	if err := k.SetDir(t.TempDir()); !errors.Is(err, ErrFile) {
		t.Fatalf("SetDir(empty) error = %v, want ErrFile", err)
	}
	if k.Dir() != old {
		t.Errorf("Dir() = %q after failed SetDir, want %q", k.Dir(), old)
	}

	other := writeScript(t, strings.Replace(fakeKaTeX, "data-output", "data-alt", 1))
	if err := k.SetDir(other); err != nil {
		t.Fatalf("SetDir() error = %v", err)
	}
	got, err := k.Render("x", false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "data-alt") {
		t.Errorf("Render() = %q, want output from the new script", got)
	}
}

func TestKaTeX_StylesheetPath(t *testing.T) {
	t.Parallel()

	k := newTestKaTeX(t)
	if k.StylesheetPath() != "katex" {
		t.Errorf("StylesheetPath() = %q, want katex", k.StylesheetPath())
	}
}
