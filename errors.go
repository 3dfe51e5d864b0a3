package md2html

import (
	"errors"

	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/mathengine"
	"github.com/alnah/go-md2html/settings"
)

// Sentinel errors for library operations.
var (
	// ErrConfigurationKey indicates a key the component does not recognize.
	ErrConfigurationKey = settings.ErrUnknownKey

	// ErrConfigurationValue indicates a recognized key holding an unusable value.
	ErrConfigurationValue = settings.ErrInvalidValue

	// ErrFile indicates a source or destination file could not be used.
	ErrFile = errors.New("file error")

	// ErrAssetRead indicates an asset required by the include mode could not be read.
	ErrAssetRead = assets.ErrAssetRead

	// ErrMathParse indicates the math engine rejected an expression.
	ErrMathParse = mathengine.ErrParse

	// ErrPoolClosed indicates an Acquire on a ParserPool that was closed.
	ErrPoolClosed = errors.New("parser pool closed")

	// ErrInternal indicates a broken invariant inside the pipeline.
	ErrInternal = errors.New("internal error")
)
