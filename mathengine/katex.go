package mathengine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/alnah/go-md2html/settings"
)

// ScriptName is the KaTeX bundle loaded from the script directory.
const ScriptName = "katex.min.js"

// KaTeXStylesheet is the logical asset path of the KaTeX stylesheet.
const KaTeXStylesheet = "katex"

// KaTeX renders expressions with the KaTeX library running in goja.
//
// Runtimes are shared: every KaTeX engine loading the same script uses one
// goja runtime, created on first use and torn down when the last engine
// using it is closed. Calls into a runtime are serialized.
type KaTeX struct {
	base
	script string
	box    *sandbox
}

// NewKaTeX loads dir/katex.min.js and returns an engine using it.
// Returns ErrFile if the script is missing or does not define katex.
func NewKaTeX(dir string, opts ...Option) (*KaTeX, error) {
	k := &KaTeX{
		base: newBase(
			settings.Schema{"output": settings.OneOf("html", "mathml", "htmlAndMathml")},
			map[string]string{"output": "htmlAndMathml"},
			opts,
		),
	}
	if err := k.SetDir(dir); err != nil {
		return nil, err
	}
	return k, nil
}

// SetDir switches to the script in dir. On error the engine keeps its
// current script.
func (k *KaTeX) SetDir(dir string) error {
	script, err := filepath.Abs(filepath.Join(dir, ScriptName))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFile, err)
	}
	box, err := acquire(script)
	if err != nil {
		return err
	}
	if k.box != nil {
		release(k.script, k.box)
	}
	k.script, k.box = script, box
	return nil
}

// Dir returns the directory the script was loaded from.
func (k *KaTeX) Dir() string {
	return filepath.Dir(k.script)
}

// StylesheetPath returns the logical asset path of the stylesheet KaTeX
// output depends on.
func (k *KaTeX) StylesheetPath() string {
	return KaTeXStylesheet
}

// Render renders expression. display selects display (block) mode unless
// all-display-math forces it.
func (k *KaTeX) Render(expression string, display bool) (string, error) {
	if k.box == nil {
		return "", fmt.Errorf("%w: engine is closed", ErrFile)
	}
	output, _ := k.settings.Get("output")

	out, err := k.box.render(expression, k.displayMode(display), output)
	if err != nil {
		var jsErr *goja.Exception
		if !errors.As(err, &jsErr) {
			return "", err
		}
		return k.failed(expression, strings.TrimPrefix(jsErr.Value().String(), "ParseError: "))
	}
	return out, nil
}

// Close releases the shared runtime. The engine cannot render afterwards.
func (k *KaTeX) Close() error {
	if k.box != nil {
		release(k.script, k.box)
		k.box = nil
	}
	return nil
}

// sandbox is one goja runtime with KaTeX loaded.
type sandbox struct {
	mu       sync.Mutex
	rt       *goja.Runtime
	toString goja.Callable
	refs     int
}

var (
	sandboxesMu sync.Mutex
	sandboxes   = map[string]*sandbox{}
)

// acquire returns the sandbox for script, loading it on first use.
func acquire(script string) (*sandbox, error) {
	sandboxesMu.Lock()
	defer sandboxesMu.Unlock()

	if box, ok := sandboxes[script]; ok {
		box.refs++
		return box, nil
	}

	src, err := os.ReadFile(script) // #nosec G304 -- user-selected script directory
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFile, err)
	}

	rt := goja.New()
	if _, err := rt.RunScript(filepath.Base(script), string(src)); err != nil {
		return nil, fmt.Errorf("%w: evaluating %s: %v", ErrFile, script, err)
	}

	katex := rt.Get("katex")
	if katex == nil || goja.IsUndefined(katex) || goja.IsNull(katex) {
		return nil, fmt.Errorf("%w: %s does not define katex", ErrFile, script)
	}
	toString, ok := goja.AssertFunction(katex.ToObject(rt).Get("renderToString"))
	if !ok {
		return nil, fmt.Errorf("%w: %s has no katex.renderToString", ErrFile, script)
	}

	box := &sandbox{rt: rt, toString: toString, refs: 1}
	sandboxes[script] = box
	return box, nil
}

// release drops one reference and tears the runtime down on the last one.
func release(script string, box *sandbox) {
	sandboxesMu.Lock()
	defer sandboxesMu.Unlock()

	box.refs--
	if box.refs > 0 {
		return
	}
	if sandboxes[script] == box {
		delete(sandboxes, script)
	}
	box.mu.Lock()
	box.rt, box.toString = nil, nil
	box.mu.Unlock()
}

func (s *sandbox) render(expression string, display bool, output string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.rt.NewObject()
	for name, value := range map[string]any{
		"displayMode":  display,
		"throwOnError": true,
		"output":       output,
	} {
		if err := opts.Set(name, value); err != nil {
			return "", err
		}
	}

	v, err := s.toString(goja.Undefined(), s.rt.ToValue(expression), opts)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
