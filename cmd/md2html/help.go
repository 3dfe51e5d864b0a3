package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html <command> [flags] [args]")
	fmt.Fprintln(w, "       md2html <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown files to HTML")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check the environment for PDF and KaTeX support")
	fmt.Fprintln(w, "  completion Generate a shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2html help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown files with $...$ and $$...$$ math to HTML.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>          Output file or directory")
	fmt.Fprintln(w, "      --config <name>          Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>            Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --title <s>              Document title")
	fmt.Fprintln(w, "  -m, --markdown-style <s>     Markdown theme, \"none\" to omit (default github)")
	fmt.Fprintln(w, "  -c, --code-style <s>         Code theme, \"none\" to omit (default github)")
	fmt.Fprintln(w, "  -l, --include-mode <s>       Assets: embed, local, network (default network)")
	fmt.Fprintln(w, "      --root <dir>             Asset root directory")
	fmt.Fprintln(w, "      --stylesheet <path>      Extra stylesheet (repeatable)")
	fmt.Fprintln(w, "      --css <file>             CSS file appended to the head")
	fmt.Fprintln(w, "      --no-math                Leave $ math untouched")
	fmt.Fprintln(w, "      --no-code                Omit code theme assets")
	fmt.Fprintln(w, "      --no-highlight           Skip the highlighter pass")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Engines:")
	fmt.Fprintln(w, "      --markup-engine <s>      goldmark, gomarkdown (default goldmark)")
	fmt.Fprintln(w, "      --math-engine <s>        mathml, katex (default mathml)")
	fmt.Fprintln(w, "      --highlighter <s>        client, chroma (default client)")
	fmt.Fprintln(w, "      --katex-dir <dir>        Directory holding katex.min.js")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PDF:")
	fmt.Fprintln(w, "      --pdf                    Also print each document to PDF")
	fmt.Fprintln(w, "  -t, --timeout <d>            Page load timeout (default 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                  Only show errors")
	fmt.Fprintln(w, "  -v, --verbose                Show debug logs and timing")
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html config [--config <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration convert would use, as YAML.")
	fmt.Fprintln(w, "Without --config, prints the built-in defaults.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html doctor [--json] [--config <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome for --pdf, the KaTeX library and the asset root.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2html version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2html help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
