package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes content to name in a fresh temp dir and returns the path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Input.DefaultDir != "" || cfg.Output.DefaultDir != "" {
		t.Errorf("default dirs = %q, %q, want empty", cfg.Input.DefaultDir, cfg.Output.DefaultDir)
	}
	if cfg.Document.MarkdownStyle != "github" || cfg.Document.CodeStyle != "github" {
		t.Errorf("styles = %q, %q, want github", cfg.Document.MarkdownStyle, cfg.Document.CodeStyle)
	}
	if cfg.Document.IncludeMode != "network" {
		t.Errorf("IncludeMode = %q, want network", cfg.Document.IncludeMode)
	}
	if !cfg.Document.Math || !cfg.Document.Code || !cfg.Document.Highlighting {
		t.Error("math, code and highlighting should default to enabled")
	}
	if cfg.Engines.Markup != MarkupGoldmark || cfg.Engines.Math != MathMathML || cfg.Engines.Highlighter != HighlighterClient {
		t.Errorf("Engines = %+v", cfg.Engines)
	}
	if cfg.PDF.Enabled {
		t.Error("PDF.Enabled = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{name: "empty value is valid", value: "", maxLength: 10},
		{name: "value at limit is valid", value: "1234567890", maxLength: 10},
		{name: "value over limit returns error", value: "12345678901", maxLength: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test.field", tt.value, tt.maxLength)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
				if err != nil && !strings.Contains(err.Error(), "test.field") {
					t.Errorf("error %q should name the field", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty enums are allowed", mutate: func(c *Config) { c.Engines = EnginesConfig{}; c.Logging.Level = "" }},
		{name: "bad include mode", mutate: func(c *Config) { c.Document.IncludeMode = "ftp" }, wantErr: ErrInvalidField},
		{name: "bad markup engine", mutate: func(c *Config) { c.Engines.Markup = "blackfriday" }, wantErr: ErrInvalidField},
		{name: "bad math engine", mutate: func(c *Config) { c.Engines.Math = "mathjax" }, wantErr: ErrInvalidField},
		{name: "bad highlighter", mutate: func(c *Config) { c.Engines.Highlighter = "prism" }, wantErr: ErrInvalidField},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: ErrInvalidField},
		{name: "katex without dir", mutate: func(c *Config) { c.Engines.Math = MathKaTeX }, wantErr: ErrInvalidField},
		{name: "katex with dir", mutate: func(c *Config) { c.Engines.Math = MathKaTeX; c.Engines.KaTeXDir = "/opt/katex" }},
		{name: "title too long", mutate: func(c *Config) { c.Document.Title = strings.Repeat("t", MaxTitleLength+1) }, wantErr: ErrFieldTooLong},
		{name: "stylesheet too long", mutate: func(c *Config) {
			c.Document.Stylesheets = []string{"ok.css", strings.Repeat("s", MaxPathLength+1)}
		}, wantErr: ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "test.yaml", `document:
  title: "Notes"
  markdownStyle: none
  includeMode: embed
  math: false
  stylesheets:
    - extra.css
engines:
  highlighter: chroma
markup:
  typographer: "1"
math:
  throw-on-error: "0"
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Document.Title != "Notes" || cfg.Document.MarkdownStyle != "none" || cfg.Document.IncludeMode != "embed" {
			t.Errorf("Document = %+v", cfg.Document)
		}
		if cfg.Document.Math {
			t.Error("Document.Math = true, want false")
		}
		if !cfg.Document.Code {
			t.Error("Document.Code lost its default")
		}
		if cfg.Document.CodeStyle != "github" {
			t.Errorf("CodeStyle = %q, want default github", cfg.Document.CodeStyle)
		}
		if len(cfg.Document.Stylesheets) != 1 || cfg.Document.Stylesheets[0] != "extra.css" {
			t.Errorf("Stylesheets = %v", cfg.Document.Stylesheets)
		}
		if cfg.Engines.Highlighter != HighlighterChroma || cfg.Engines.Markup != MarkupGoldmark {
			t.Errorf("Engines = %+v", cfg.Engines)
		}
		if cfg.Markup["typographer"] != "1" || cfg.Math["throw-on-error"] != "0" {
			t.Errorf("engine options = %v, %v", cfg.Markup, cfg.Math)
		}
	})

	t.Run("loads input and output directories", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "test.yaml", "input:\n  defaultDir: /in\noutput:\n  defaultDir: /out\n")
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Input.DefaultDir != "/in" || cfg.Output.DefaultDir != "/out" {
			t.Errorf("dirs = %q, %q", cfg.Input.DefaultDir, cfg.Output.DefaultDir)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown name returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("no-such-config-name-for-tests")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
		if err != nil && !strings.Contains(err.Error(), "no-such-config-name-for-tests.yaml") {
			t.Errorf("error %q should list searched paths", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "invalid.yaml", "document: [unclosed")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "strict.yaml", "document:\n  colour: red\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "bad.yaml", "engines:\n  math: mathjax\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidField) {
			t.Errorf("error = %v, want ErrInvalidField", err)
		}
	})
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths("work")
	if len(paths) < 2 || paths[0] != "work.yaml" || paths[1] != "work.yml" {
		t.Fatalf("SearchPaths() = %v, want local files first", paths)
	}
	for _, p := range paths[2:] {
		if !strings.Contains(p, filepath.Join(dirName, "work")) {
			t.Errorf("SearchPaths() entry %q not under %s", p, dirName)
		}
	}
}
