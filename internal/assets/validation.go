package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetPath checks that a logical asset path is safe to join onto a
// root. Returns ErrInvalidAssetPath if the path is empty, absolute, contains
// a backslash, or has an empty, "." or ".." segment.
func ValidateAssetPath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidAssetPath)
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetPath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidAssetPath, p)
		}
	}
	return nil
}
