package highlight

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/settings"
)

// fakeResolver records requested paths and returns marker tags.
type fakeResolver struct {
	requested []string
	failOn    string
}

func (f *fakeResolver) Stylesheet(path string) (string, error) {
	f.requested = append(f.requested, "css:"+path)
	if path == f.failOn {
		return "", assets.ErrAssetRead
	}
	return "<css " + path + ">", nil
}

func (f *fakeResolver) Script(path string) (string, error) {
	f.requested = append(f.requested, "js:"+path)
	if path == f.failOn {
		return "", assets.ErrAssetRead
	}
	return "<js " + path + ">", nil
}

var _ AssetResolver = (*fakeResolver)(nil)
var _ AssetResolver = (*assets.Resolver)(nil)

func TestClient_Head(t *testing.T) {
	t.Parallel()

	t.Run("theme then script then init", func(t *testing.T) {
		t.Parallel()

		r := &fakeResolver{}
		got, err := NewClient().Head("github", r)
		if err != nil {
			t.Fatalf("Head() error = %v", err)
		}
		want := "<css style/code/themes/github><js style/code/highlight><script>\nhljs.highlightAll();\n</script>\n"
		if got != want {
			t.Errorf("Head() = %q, want %q", got, want)
		}
	})

	t.Run("nested style name", func(t *testing.T) {
		t.Parallel()

		r := &fakeResolver{}
		if _, err := NewClient().Head("base16/solarized-dark", r); err != nil {
			t.Fatalf("Head() error = %v", err)
		}
		if r.requested[0] != "css:style/code/themes/base16/solarized-dark" {
			t.Errorf("requested %v", r.requested)
		}
	})

	t.Run("asset error propagates", func(t *testing.T) {
		t.Parallel()

		r := &fakeResolver{failOn: ScriptPath}
		_, err := NewClient().Head("github", r)
		if !errors.Is(err, assets.ErrAssetRead) {
			t.Errorf("Head() error = %v, want ErrAssetRead", err)
		}
	})

	t.Run("network mode with built-ins", func(t *testing.T) {
		t.Parallel()

		r, err := assets.NewResolver("", assets.Network)
		if err != nil {
			t.Fatalf("NewResolver() error = %v", err)
		}
		got, err := NewClient().Head("github", r)
		if err != nil {
			t.Fatalf("Head() error = %v", err)
		}
		if strings.Count(got, "https://") != 2 {
			t.Errorf("Head() = %q, want two network references", got)
		}
	})
}

func TestClient_Highlight(t *testing.T) {
	t.Parallel()

	in := "<pre><code class=\"language-go\">x</code></pre>"
	got, err := NewClient().Highlight(in)
	if err != nil || got != in {
		t.Errorf("Highlight() = %q, %v, want input unchanged", got, err)
	}
}

func TestChroma_Head(t *testing.T) {
	t.Parallel()

	t.Run("known style", func(t *testing.T) {
		t.Parallel()

		got, err := NewChroma().Head("monokai", nil)
		if err != nil {
			t.Fatalf("Head() error = %v", err)
		}
		if !strings.HasPrefix(got, "<style>") || !strings.Contains(got, ".chroma") {
			t.Errorf("Head() = %q, want inline chroma css", got)
		}
	})

	t.Run("unknown style", func(t *testing.T) {
		t.Parallel()

		_, err := NewChroma().Head("no-such-style", nil)
		if !errors.Is(err, ErrUnknownStyle) {
			t.Errorf("Head() error = %v, want ErrUnknownStyle", err)
		}
		if !errors.Is(err, settings.ErrInvalidValue) {
			t.Errorf("Head() error = %v, want wrapped ErrInvalidValue", err)
		}
	})
}

func TestChroma_Highlight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "go block",
			input:    "<p>before</p>\n<pre><code class=\"language-go\">func main() {}\n</code></pre>\n<p>after</p>",
			contains: []string{`class="chroma"`, "<p>before</p>", "<p>after</p>", `class="kd"`},
			excludes: []string{"language-go"},
		},
		{
			name:     "unknown language",
			input:    "<pre><code class=\"language-nosuchlang\">a &lt; b</code></pre>",
			contains: []string{`class="chroma"`, "a &lt; b"},
		},
		{
			name:     "no language left alone",
			input:    "<pre><code>plain</code></pre>",
			contains: []string{"<pre><code>plain</code></pre>"},
			excludes: []string{"chroma"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewChroma().Highlight(tt.input)
			if err != nil {
				t.Fatalf("Highlight() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Highlight() = %q, want to contain %q", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("Highlight() = %q, want no %q", got, unwanted)
				}
			}
		})
	}
}

func TestStyles(t *testing.T) {
	t.Parallel()

	names := Styles()
	if !slices.IsSorted(names) {
		t.Error("Styles() not sorted")
	}
	for _, want := range []string{"github", "monokai"} {
		if !slices.Contains(names, want) {
			t.Errorf("Styles() missing %q", want)
		}
	}
}
