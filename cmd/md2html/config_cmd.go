package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html/internal/yamlutil"
)

// runConfigCmd prints the effective configuration as YAML.
func runConfigCmd(args []string, env *Environment) int {
	var name string
	fs := newConfigFlagSet(&name)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() { printConfigUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		printConfigUsage(env.Stderr)
		return ExitUsage
	}

	cfg, err := loadConfig(name)
	if err != nil {
		fmt.Fprintln(env.Stderr, formatError(err))
		return exitCodeFor(err)
	}

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitGeneral
	}
	_, _ = env.Stdout.Write(out)
	return ExitSuccess
}

// newConfigFlagSet registers the config command flags.
func newConfigFlagSet(name *string) *flag.FlagSet {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(name, "config", "", "config file name or path")
	return fs
}
