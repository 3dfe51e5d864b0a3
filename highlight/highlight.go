// Package highlight provides the code highlighters a document parser can
// attach to its output.
//
// A highlighter contributes two things: head fragments (theme stylesheet,
// scripts) and an optional pass over the rendered body. Client leaves the
// body alone and lets highlight.js color code in the browser. Chroma colors
// code blocks at render time and needs no script.
package highlight

import (
	"fmt"

	"github.com/alnah/go-md2html/settings"
)

// ErrUnknownStyle indicates the requested code style does not exist.
var ErrUnknownStyle = fmt.Errorf("%w: code style", settings.ErrInvalidValue)

// AssetResolver turns logical asset paths into head fragments according to
// the document's include mode.
type AssetResolver interface {
	Stylesheet(path string) (string, error)
	Script(path string) (string, error)
}

// Logical asset paths used by Client.
const (
	ThemesPath = "style/code/themes"
	ScriptPath = "style/code/highlight"
)
