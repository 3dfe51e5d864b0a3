// Package config loads the YAML configuration of the md2html command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidField    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxTitleLength = 200
	MaxPathLength  = 4096
	MaxStyleLength = 100
	MaxCSSLength   = 64 << 10
)

// Engine names.
const (
	MarkupGoldmark    = "goldmark"
	MarkupGomarkdown  = "gomarkdown"
	MathMathML        = "mathml"
	MathKaTeX         = "katex"
	HighlighterClient = "client"
	HighlighterChroma = "chroma"
)

// Accepted values of enumerated fields.
var (
	MarkupEngines = []string{MarkupGoldmark, MarkupGomarkdown}
	MathEngines   = []string{MathMathML, MathKaTeX}
	Highlighters  = []string{HighlighterClient, HighlighterChroma}
	IncludeModes  = []string{"embed", "local", "network"}
	LogLevels     = []string{"debug", "info", "warn", "error"}
)

// dirName is the directory searched under the user config directory.
const dirName = "go-md2html"

// Config holds all configuration of the md2html command.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Document DocumentConfig `yaml:"document"`
	Engines  EnginesConfig  `yaml:"engines"`
	Markup   EngineOptions  `yaml:"markup"`
	Math     EngineOptions  `yaml:"math"`
	PDF      PDFConfig      `yaml:"pdf"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// DocumentConfig defines the document the parser assembles.
type DocumentConfig struct {
	Title         string   `yaml:"title"`
	MarkdownStyle string   `yaml:"markdownStyle"`
	CodeStyle     string   `yaml:"codeStyle"`
	IncludeMode   string   `yaml:"includeMode"`
	Root          string   `yaml:"root"` // Asset root (empty = built-in assets)
	Math          bool     `yaml:"math"`
	Code          bool     `yaml:"code"`
	Highlighting  bool     `yaml:"highlighting"`
	Stylesheets   []string `yaml:"stylesheets"`
	CSS           string   `yaml:"css"` // Inline CSS appended to the head
}

// EnginesConfig selects the pluggable engines.
type EnginesConfig struct {
	Markup      string `yaml:"markup"`      // goldmark, gomarkdown
	Math        string `yaml:"math"`        // mathml, katex
	Highlighter string `yaml:"highlighter"` // client, chroma
	KaTeXDir    string `yaml:"katexDir"`    // Directory holding katex.min.js
}

// EngineOptions are passed verbatim to an engine's settings.
type EngineOptions map[string]string

// PDFConfig defines PDF export options.
type PDFConfig struct {
	Enabled bool   `yaml:"enabled"`
	Timeout string `yaml:"timeout"` // Go duration, e.g. "30s"
}

// LoggingConfig defines log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate checks enumerated values and field lengths.
// Called automatically by LoadConfig, but available for configs built in code.
func (c *Config) Validate() error {
	if err := validateFieldLength("document.title", c.Document.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.markdownStyle", c.Document.MarkdownStyle, MaxStyleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.codeStyle", c.Document.CodeStyle, MaxStyleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.root", c.Document.Root, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.css", c.Document.CSS, MaxCSSLength); err != nil {
		return err
	}
	for i, s := range c.Document.Stylesheets {
		if err := validateFieldLength(fmt.Sprintf("document.stylesheets[%d]", i), s, MaxPathLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("engines.katexDir", c.Engines.KaTeXDir, MaxPathLength); err != nil {
		return err
	}

	enums := []struct {
		field, value string
		allowed      []string
	}{
		{"document.includeMode", c.Document.IncludeMode, IncludeModes},
		{"engines.markup", c.Engines.Markup, MarkupEngines},
		{"engines.math", c.Engines.Math, MathEngines},
		{"engines.highlighter", c.Engines.Highlighter, Highlighters},
		{"logging.level", c.Logging.Level, LogLevels},
	}
	for _, e := range enums {
		if e.value != "" && !slices.Contains(e.allowed, e.value) {
			return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidField, e.field, e.value, strings.Join(e.allowed, ", "))
		}
	}

	if c.Engines.Math == MathKaTeX && c.Engines.KaTeXDir == "" {
		return fmt.Errorf("%w: engines.katexDir: required when engines.math is katex", ErrInvalidField)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
// Values mirror the parser defaults.
func DefaultConfig() *Config {
	return &Config{
		Document: DocumentConfig{
			MarkdownStyle: "github",
			CodeStyle:     "github",
			IncludeMode:   "network",
			Math:          true,
			Code:          true,
			Highlighting:  true,
		},
		Engines: EnginesConfig{
			Markup:      MarkupGoldmark,
			Math:        MathMathML,
			Highlighter: HighlighterClient,
		},
		PDF:     PDFConfig{Timeout: "30s"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the files LoadConfig tries for a config name, in order:
// name.yaml and name.yml in the current directory, then in the user config
// directory.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, dirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
