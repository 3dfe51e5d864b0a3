package main

import (
	"errors"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// documentFlags holds flags shaping the assembled document.
type documentFlags struct {
	title         string
	markdownStyle string
	codeStyle     string
	includeMode   string
	root          string
	stylesheets   []string
	css           string
	noMath        bool
	noCode        bool
	noHighlight   bool
}

// engineFlags select the pluggable engines.
type engineFlags struct {
	markup      string
	math        string
	highlighter string
	katexDir    string
}

// pdfFlags control PDF output.
type pdfFlags struct {
	enabled bool
	timeout string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	output   string
	workers  int
	document documentFlags
	engines  engineFlags
	pdf      pdfFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVar(&f.config, "config", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addDocumentFlags adds document flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "document title")
	fs.StringVarP(&f.markdownStyle, "markdown-style", "m", "", "markdown theme (\"none\" to omit)")
	fs.StringVarP(&f.codeStyle, "code-style", "c", "", "code theme (\"none\" to omit)")
	fs.StringVarP(&f.includeMode, "include-mode", "l", "", "asset include mode: embed, local, network")
	fs.StringVar(&f.root, "root", "", "asset root directory")
	fs.StringArrayVar(&f.stylesheets, "stylesheet", nil, "extra stylesheet path or URL (repeatable)")
	fs.StringVar(&f.css, "css", "", "CSS file appended to the head")
	fs.BoolVar(&f.noMath, "no-math", false, "leave $ math untouched")
	fs.BoolVar(&f.noCode, "no-code", false, "omit code theme assets")
	fs.BoolVar(&f.noHighlight, "no-highlight", false, "skip the highlighter pass over code blocks")
}

// addEngineFlags adds engine selection flags to a FlagSet.
func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVar(&f.markup, "markup-engine", "", "markup engine: goldmark, gomarkdown")
	fs.StringVar(&f.math, "math-engine", "", "math engine: mathml, katex")
	fs.StringVar(&f.highlighter, "highlighter", "", "code highlighter: client, chroma")
	fs.StringVar(&f.katexDir, "katex-dir", "", "directory holding katex.min.js")
}

// addPDFFlags adds PDF output flags to a FlagSet.
func addPDFFlags(fs *flag.FlagSet, f *pdfFlags) {
	fs.BoolVar(&f.enabled, "pdf", false, "also print each document to PDF")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF page load timeout (e.g., 30s, 2m)")
}

// newConvertFlagSet registers every convert flag on a fresh FlagSet bound to f.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")

	addCommonFlags(fs, &f.common)
	addDocumentFlags(fs, &f.document)
	addEngineFlags(fs, &f.engines)
	addPDFFlags(fs, &f.pdf)

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
// Usage goes to w on a parse error.
func parseConvertFlags(args []string, w io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(w)
	fs.Usage = func() { printConvertUsage(w) }

	if err := fs.Parse(args); err != nil {
		// pflag only prints usage on its own for --help.
		if !errors.Is(err, flag.ErrHelp) {
			printConvertUsage(w)
		}
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
