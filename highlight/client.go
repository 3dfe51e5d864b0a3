package highlight

import (
	"github.com/alnah/go-md2html/internal/assets"
)

// initScript starts highlight.js once the page has loaded.
const initScript = "hljs.highlightAll();"

// Client highlights code in the browser with highlight.js.
type Client struct{}

// NewClient creates a Client highlighter.
func NewClient() *Client {
	return &Client{}
}

// Head returns the theme stylesheet for style, the highlight.js script and
// the script starting it.
func (c *Client) Head(style string, r AssetResolver) (string, error) {
	css, err := r.Stylesheet(ThemesPath + "/" + style)
	if err != nil {
		return "", err
	}
	js, err := r.Script(ScriptPath)
	if err != nil {
		return "", err
	}
	return css + js + assets.InlineScript(initScript), nil
}

// Highlight returns html unchanged; highlighting happens in the browser.
func (c *Client) Highlight(html string) (string, error) {
	return html, nil
}
