package assets

import "fmt"

// IncludeMode selects how head assets are attached to a document.
type IncludeMode string

// Include modes.
const (
	Embed   IncludeMode = "embed"
	Local   IncludeMode = "local"
	Network IncludeMode = "network"
)

// IncludeModes lists the valid modes in their canonical order.
var IncludeModes = []IncludeMode{Embed, Local, Network}

// ParseIncludeMode validates s as an include mode.
// Returns ErrInvalidIncludeMode for any other value.
func ParseIncludeMode(s string) (IncludeMode, error) {
	switch m := IncludeMode(s); m {
	case Embed, Local, Network:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want embed, local or network)", ErrInvalidIncludeMode, s)
	}
}

// String implements fmt.Stringer.
func (m IncludeMode) String() string {
	return string(m)
}
