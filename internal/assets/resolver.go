package assets

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Asset file names inside a logical asset directory.
const (
	StyleFile   = "style.css"
	ScriptFile  = "script.js"
	NetworkFile = "network.url"
)

// Resolver turns logical asset paths into head fragments for one include
// mode. It reads from the root directory first and falls back to the built-in
// assets when a file is not found there.
type Resolver struct {
	root     string
	mode     IncludeMode
	custom   Loader // nil if no root configured
	embedded Loader
}

// NewResolver creates a Resolver for root and mode.
// An empty root uses the built-in assets only.
func NewResolver(root string, mode IncludeMode) (*Resolver, error) {
	if _, err := ParseIncludeMode(string(mode)); err != nil {
		return nil, err
	}

	r := &Resolver{
		root:     root,
		mode:     mode,
		embedded: NewEmbeddedLoader(),
	}

	if root != "" {
		fsLoader, err := NewFilesystemLoader(root)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}

	return r, nil
}

// Mode returns the include mode.
func (r *Resolver) Mode() IncludeMode {
	return r.mode
}

// Root returns the root directory as configured.
func (r *Resolver) Root() string {
	return r.root
}

// Stylesheet returns the tag attaching the stylesheet at logical path p.
func (r *Resolver) Stylesheet(p string) (string, error) {
	if err := ValidateAssetPath(p); err != nil {
		return "", err
	}

	switch r.mode {
	case Embed:
		content, err := r.read(path.Join(p, StyleFile))
		if err != nil {
			return "", err
		}
		return InlineStyle(string(content)), nil
	case Local:
		return LinkStylesheet(r.localURL(p, StyleFile)), nil
	default:
		url, err := r.networkURL(p)
		if err != nil {
			return "", err
		}
		return LinkStylesheet(url), nil
	}
}

// Script returns the tag attaching the script at logical path p.
func (r *Resolver) Script(p string) (string, error) {
	if err := ValidateAssetPath(p); err != nil {
		return "", err
	}

	switch r.mode {
	case Embed:
		content, err := r.read(path.Join(p, ScriptFile))
		if err != nil {
			return "", err
		}
		return InlineScript(string(content)), nil
	case Local:
		return ExternalScript(r.localURL(p, ScriptFile)), nil
	default:
		url, err := r.networkURL(p)
		if err != nil {
			return "", err
		}
		return ExternalScript(url), nil
	}
}

// UserStylesheet attaches a stylesheet given by file path rather than by
// logical asset path. Embed mode inlines the file content; the other modes
// link to the path as given.
func (r *Resolver) UserStylesheet(file string) (string, error) {
	if r.mode != Embed {
		return LinkStylesheet(filepath.ToSlash(file)), nil
	}

	content, err := os.ReadFile(file) // #nosec G304 -- user-selected stylesheet
	if err != nil {
		return "", fmt.Errorf("%w: stylesheet %s: %v", ErrAssetRead, file, err)
	}
	return InlineStyle(string(content)), nil
}

// read implements the custom-first, fallback-to-embedded logic.
func (r *Resolver) read(name string) ([]byte, error) {
	content, err := r.load(name)
	if err != nil {
		if errors.Is(err, ErrAssetRead) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAssetRead, err)
	}
	return content, nil
}

func (r *Resolver) load(name string) ([]byte, error) {
	if r.custom == nil {
		return r.embedded.ReadFile(name)
	}

	content, err := r.custom.ReadFile(name)
	if err == nil {
		return content, nil
	}

	// Only fall back for "not found" errors, not validation or I/O errors
	if !errors.Is(err, ErrAssetNotFound) {
		return nil, err
	}

	return r.embedded.ReadFile(name)
}

func (r *Resolver) networkURL(p string) (string, error) {
	content, err := r.read(path.Join(p, NetworkFile))
	if err != nil {
		return "", err
	}
	url := strings.TrimSpace(string(content))
	if url == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrAssetRead, path.Join(p, NetworkFile))
	}
	return url, nil
}

func (r *Resolver) localURL(p, file string) string {
	if r.root == "" {
		return path.Join(p, file)
	}
	return filepath.ToSlash(filepath.Join(r.root, filepath.FromSlash(p), file))
}

// LinkStylesheet returns a <link> tag for href.
func LinkStylesheet(href string) string {
	return "<link type='text/css' rel='stylesheet' href='" + html.EscapeString(href) + "'>\n"
}

// ExternalScript returns a <script src> tag for src.
func ExternalScript(src string) string {
	return "<script type='text/javascript' src='" + html.EscapeString(src) + "'></script>\n"
}

// InlineStyle wraps css in a <style> element.
func InlineStyle(css string) string {
	return "<style>\n" + css + "\n</style>\n"
}

// InlineScript wraps js in a <script> element.
func InlineScript(js string) string {
	return "<script>\n" + js + "\n</script>\n"
}
