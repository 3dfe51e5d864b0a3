package assets

// Loader reads asset files by slash-separated path relative to an asset root.
// Implementations may load from embedded files, a directory, an archive, etc.
type Loader interface {
	// ReadFile returns the content of name, for example
	// "style/themes/github/style.css".
	// Returns ErrAssetNotFound if the file doesn't exist.
	// Returns ErrInvalidAssetPath if the path is unsafe.
	ReadFile(name string) ([]byte, error)
}
