// Package md2html converts Markdown with LaTeX math to self-contained HTML.
//
// # Quick Start
//
// Create a parser, render, and close when done:
//
//	p, err := md2html.NewParser()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	doc, err := p.Render("# Hello\n\nEuler: $e^{i\\pi} + 1 = 0$")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("hello.html", []byte(doc), 0644)
//
// RenderSnippet returns the body fragment only, without document shell or
// head assets.
//
// # Rendering Pipeline
//
// The body goes through these stages:
//
//  1. Math extraction: $…$ and $$…$$ spans are replaced by numbered markers
//     tagged with a nonce that does not occur in the source
//  2. Markdown to HTML via the markup engine (goldmark or gomarkdown)
//  3. Each equation is rendered by the math engine (MathML or KaTeX)
//  4. Markers are replaced by the rendered equations
//  5. Optional code highlighting pass (chroma)
//
// Render then wraps the body in a document whose head carries the math
// stylesheet, the markdown theme, the code theme, user stylesheets and
// custom CSS, in that order.
//
// # Configuration
//
// Every component owns a settings table with a fixed schema. Unknown keys
// fail with ErrConfigurationKey, bad values with ErrConfigurationValue:
//
//	p, err := md2html.NewParser(
//	    md2html.WithRoot("/path/to/assets"),
//	    md2html.WithSettings(map[string]string{
//	        md2html.KeyIncludeMode:   "embed",
//	        md2html.KeyMarkdownStyle: "github",
//	        md2html.KeyCodeStyle:     "monokai",
//	    }),
//	)
//
// # Include Modes
//
// Assets are addressed by logical path, such as style/themes/github. The
// include mode decides what ends up in the head:
//
//	embed    inline <style>/<script> with <root>/<path>/style.css or script.js
//	local    <link>/<script src> pointing at <root>/<path>/...
//	network  <link>/<script src> pointing at the URL in <root>/<path>/network.url
//
// Files missing under root fall back to the built-in assets, which ship
// network.url sidecars for the default themes and KaTeX.
//
// # Engines
//
// Engines are swappable through options or setters. The Parser owns its
// engines and closes them on replacement and on Close:
//
//	katex, err := mathengine.NewKaTeX("/path/to/katex")
//	p, err := md2html.NewParser(
//	    md2html.WithMath(katex),
//	    md2html.WithMarkup(markup.NewGomarkdown()),
//	    md2html.WithHighlighter(highlight.NewChroma()),
//	)
//
// # Parallel Processing
//
// A Parser is not safe for concurrent use. ParserPool hands out one parser
// per goroutine:
//
//	pool := md2html.NewParserPool(md2html.ResolvePoolSize(0), nil)
//	defer pool.Close()
//
//	p, err := pool.Acquire()
//	defer pool.Release(p)
package md2html
