package assets

import (
	"embed"
	"fmt"
	"path"
)

//go:embed builtin
var builtin embed.FS

// EmbeddedLoader loads the assets compiled into the binary: network.url
// sidecars for the default themes and a default markdown theme stylesheet.
// Implements Loader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// ReadFile reads name from the built-in assets.
func (e *EmbeddedLoader) ReadFile(name string) ([]byte, error) {
	if err := ValidateAssetPath(name); err != nil {
		return nil, err
	}

	content, err := builtin.ReadFile(path.Join("builtin", name))
	if err != nil {
		return nil, fmt.Errorf("%w: built-in %q", ErrAssetNotFound, name)
	}

	return content, nil
}

// Compile-time interface check.
var _ Loader = (*EmbeddedLoader)(nil)
