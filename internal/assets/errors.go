package assets

import (
	"errors"
	"fmt"

	"github.com/alnah/go-md2html/settings"
)

// Sentinel errors for asset operations.
var (
	// ErrAssetNotFound indicates the requested asset file does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidAssetPath indicates the logical path is empty, absolute, or
	// contains backslashes or dot segments.
	ErrInvalidAssetPath = fmt.Errorf("%w: asset path", settings.ErrInvalidValue)

	// ErrInvalidBasePath indicates the configured root cannot be used.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrAssetRead indicates an asset required by the include mode could not be read.
	ErrAssetRead = errors.New("failed to read asset")

	// ErrPathTraversal indicates an attempt to access files outside the root.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrInvalidIncludeMode indicates an include mode other than embed, local or network.
	ErrInvalidIncludeMode = fmt.Errorf("%w: include mode", settings.ErrInvalidValue)
)
