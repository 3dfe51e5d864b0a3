package md2html

// Snippet renders markup to an HTML fragment with a default Parser.
func Snippet(markup string) (string, error) {
	p, err := NewParser()
	if err != nil {
		return "", err
	}
	defer p.Close()
	return p.RenderSnippet(markup)
}

// RenderString renders markup to a complete HTML document with a default
// Parser.
func RenderString(markup string) (string, error) {
	p, err := NewParser()
	if err != nil {
		return "", err
	}
	defer p.Close()
	return p.Render(markup)
}
