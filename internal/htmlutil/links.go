package htmlutil

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AbsolutizeLinks rewrites relative references in an HTML document to
// file:// URLs resolved against baseDir, so the document still finds its
// images and local assets once it is loaded from another directory.
// If baseDir is empty, returns the HTML unchanged.
//
// Rewrites:
//   - img[src] and a[href], when the target stays under baseDir
//   - link[href] and script[src], wherever they point (local include mode
//     may reference an asset root outside baseDir)
func AbsolutizeLinks(htmlContent, baseDir string) (string, error) {
	if baseDir == "" {
		return htmlContent, nil
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	rewriteNode(doc, absBaseDir)

	return renderHTML(doc, isFragment)
}

// parseHTML parses a full document or, when there is no <!DOCTYPE>/<html>
// prefix, a body fragment.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders a document, or only the children of a fragment
// container so no <html><body> wrapper is added.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if !isFragment {
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteNode(n *html.Node, baseDir string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			rewriteAttr(n, "src", baseDir, true)
		case atom.A:
			rewriteAttr(n, "href", baseDir, true)
		case atom.Link:
			rewriteAttr(n, "href", baseDir, false)
		case atom.Script:
			rewriteAttr(n, "src", baseDir, false)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, baseDir)
	}
}

func rewriteAttr(n *html.Node, key, baseDir string, contained bool) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}

		absPath := filepath.Join(baseDir, filepath.FromSlash(attr.Val))
		if contained && !isPathUnderDir(absPath, baseDir) {
			continue
		}

		n.Attr[i].Val = pathToFileURL(absPath)
	}
}

// isRelativePath reports whether p is a relative filesystem reference.
// URLs, anchors and absolute paths are not.
func isRelativePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "#") || strings.HasPrefix(p, "//") {
		return false
	}
	if u, err := url.Parse(p); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return false
	}
	return !filepath.IsAbs(p) && !strings.HasPrefix(p, "/")
}

// isPathUnderDir checks if absPath is dir or below it.
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}
