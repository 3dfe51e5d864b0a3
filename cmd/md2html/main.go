package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	verbose := hasVerboseFlag(os.Args[1:])

	// maxprocs.Set only fails on an invalid GOMAXPROCS env value, in which
	// case the runtime default applies.
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches to a command and returns the process exit code.
// A first argument naming a markdown file or directory means convert.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "convert":
		return runConvertCmd(ctx, rest, env)
	case "config":
		return runConfigCmd(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "completion":
		return runCompletionCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "md2html %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	}

	if looksLikeInput(cmd) {
		return runConvertCmd(ctx, args[1:], env)
	}

	fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
	printUsage(env.Stderr)
	return ExitUsage
}

// runConvertCmd parses convert flags, runs the conversion and reports errors.
func runConvertCmd(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, formatError(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// looksLikeInput reports whether arg names a markdown file or an existing
// directory rather than a command.
func looksLikeInput(arg string) bool {
	if validateMarkdownExtension(arg) == nil {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}

// hasVerboseFlag scans raw arguments for -v/--verbose before flag parsing.
func hasVerboseFlag(args []string) bool {
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}
