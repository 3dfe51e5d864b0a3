package mathengine

import (
	"strings"

	"github.com/wyatt915/treeblood"

	"github.com/alnah/go-md2html/settings"
)

// MathML renders expressions to presentation MathML with treeblood.
// Not safe for concurrent use.
type MathML struct {
	base
	macros  map[string]string
	doc     *treeblood.Pitziil
	builtAt uint64
}

// NewMathML creates a MathML engine. macros, if non-nil, are predefined for
// every expression.
func NewMathML(macros map[string]string, opts ...Option) *MathML {
	m := &MathML{
		base: newBase(
			settings.Schema{"numbering": settings.Bool},
			map[string]string{"numbering": "0"},
			opts,
		),
		macros: macros,
	}
	m.build()
	return m
}

// Render renders expression. display selects display (block) mode unless
// all-display-math forces it.
func (m *MathML) Render(expression string, display bool) (string, error) {
	if m.builtAt != m.settings.Version() {
		m.build()
	}

	var (
		out string
		err error
	)
	if m.displayMode(display) {
		out, err = m.doc.DisplayStyle(expression)
	} else {
		out, err = m.doc.TextStyle(expression)
	}
	if err != nil {
		return m.failed(expression, errorSummary(err))
	}
	return out, nil
}

func (m *MathML) build() {
	m.doc = treeblood.NewDocument(m.macros, m.flag("numbering"))
	m.builtAt = m.settings.Version()
}

// errorSummary keeps the first line of a treeblood error, dropping the
// <pre> block that points at the failing position.
func errorSummary(err error) string {
	reason, _, _ := strings.Cut(err.Error(), "\n")
	reason, _, _ = strings.Cut(reason, "<pre>")
	return strings.TrimSpace(reason)
}
