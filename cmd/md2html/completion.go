package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html/internal/config"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file with glob patterns
	flagDir
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long  string
	Short string
	Type  flagType
	Desc  string
	// Values holds enum values or file globs depending on Type.
	Values []string
}

// takesValue reports whether the flag consumes the next word.
func (f flagDef) takesValue() bool {
	return f.Type != flagBool
}

// commandDef describes a command for completion.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
	Args  []string // fixed argument words, e.g. shell names
	Files bool     // takes markdown files
}

// completionMeta holds the completion hints pflag cannot express.
// Flag names, types and descriptions come from the FlagSets.
type completionMeta struct {
	Values []string
	Globs  []string
	IsDir  bool
}

var flagCompletionMeta = map[string]completionMeta{
	"include-mode":   {Values: config.IncludeModes},
	"markup-engine":  {Values: config.MarkupEngines},
	"math-engine":    {Values: config.MathEngines},
	"highlighter":    {Values: config.Highlighters},
	"markdown-style": {Values: []string{"github", "none"}},

	"config":     {Globs: []string{"*.yaml", "*.yml"}},
	"stylesheet": {Globs: []string{"*.css"}},
	"css":        {Globs: []string{"*.css"}},

	"output":    {IsDir: true},
	"root":      {IsDir: true},
	"katex-dir": {IsDir: true},
}

var markdownGlobs = []string{"*.md", "*.markdown"}

// extractFlags converts a FlagSet into completion definitions.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type = flagEnum
				fd.Values = meta.Values
			case len(meta.Globs) > 0:
				fd.Type = flagFile
				fd.Values = meta.Globs
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
func getCommands() []commandDef {
	var (
		jsonOutput bool
		name       string
	)
	return []commandDef{
		{Name: "convert", Desc: "Convert markdown files to HTML", Flags: extractFlags(newConvertFlagSet(&convertFlags{})), Files: true},
		{Name: "config", Desc: "Print the effective configuration", Flags: extractFlags(newConfigFlagSet(&name))},
		{Name: "doctor", Desc: "Check the environment", Flags: extractFlags(newDoctorFlagSet(&jsonOutput, &name))},
		{Name: "completion", Desc: "Generate a shell completion script", Args: []string{string(ShellBash), string(ShellZsh), string(ShellFish)}},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	cmds := getCommands()
	switch shell {
	case ShellBash:
		return generateBash(w, cmds)
	case ShellZsh:
		return generateZsh(w, cmds)
	case ShellFish:
		return generateFish(w, cmds)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

// runCompletionCmd handles the completion command.
func runCompletionCmd(args []string, env *Environment) int {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return ExitSuccess
	}
	if err := GenerateCompletion(env.Stdout, Shell(args[0])); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}
	return ExitSuccess
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2html completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate a completion script for bash, zsh or fish.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w, "  Bash:  eval \"$(md2html completion bash)\"          # in ~/.bashrc")
	fmt.Fprintln(w, "  Zsh:   eval \"$(md2html completion zsh)\"           # in ~/.zshrc, before compinit")
	fmt.Fprintln(w, "  Fish:  md2html completion fish > ~/.config/fish/completions/md2html.fish")
}

func commandNames(cmds []commandDef) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

func flagWords(flags []flagDef) string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return strings.Join(words, " ")
}

func bashFileCompgen(globs []string) string {
	var parts []string
	for _, g := range globs {
		parts = append(parts, fmt.Sprintf("$(compgen -f -X '!%s' -- \"$cur\")", g))
	}
	return strings.Join(parts, " ")
}

func generateBash(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("# bash completion for md2html\n\n")
	b.WriteString("_md2html() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    compopt -o filenames 2>/dev/null\n\n")
	b.WriteString("    if [[ $COMP_CWORD -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W \"%s\" -- \"$cur\") %s $(compgen -d -- \"$cur\"))\n",
		commandNames(cmds), bashFileCompgen(markdownGlobs))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n")
	b.WriteString("    case \"$cmd\" in\n")

	for _, c := range cmds {
		if c.Name == "convert" {
			continue
		}
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		writeBashCommand(&b, c, cmds)
		b.WriteString("        ;;\n")
	}
	for _, c := range cmds {
		if c.Name == "convert" {
			b.WriteString("    *)\n")
			writeBashCommand(&b, c, cmds)
			b.WriteString("        ;;\n")
		}
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -F _md2html md2html\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeBashCommand(b *strings.Builder, c commandDef, cmds []commandDef) {
	b.WriteString("        case \"$prev\" in\n")
	for _, f := range c.Flags {
		if !f.takesValue() {
			continue
		}
		pattern := "--" + f.Long
		if f.Short != "" {
			pattern = "-" + f.Short + "|" + pattern
		}
		switch f.Type {
		case flagEnum:
			fmt.Fprintf(b, "        %s) COMPREPLY=($(compgen -W \"%s\" -- \"$cur\")); return ;;\n", pattern, strings.Join(f.Values, " "))
		case flagFile:
			fmt.Fprintf(b, "        %s) COMPREPLY=(%s $(compgen -d -- \"$cur\")); return ;;\n", pattern, bashFileCompgen(f.Values))
		case flagDir:
			fmt.Fprintf(b, "        %s) COMPREPLY=($(compgen -d -- \"$cur\")); return ;;\n", pattern)
		default:
			fmt.Fprintf(b, "        %s) return ;;\n", pattern)
		}
	}
	b.WriteString("        esac\n")

	if len(c.Flags) > 0 {
		b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
		fmt.Fprintf(b, "            COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n", flagWords(c.Flags))
		b.WriteString("            return\n")
		b.WriteString("        fi\n")
	}

	switch {
	case c.Files:
		fmt.Fprintf(b, "        COMPREPLY=(%s $(compgen -d -- \"$cur\"))\n", bashFileCompgen(markdownGlobs))
	case len(c.Args) > 0:
		fmt.Fprintf(b, "        COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n", strings.Join(c.Args, " "))
	case c.Name == "help":
		fmt.Fprintf(b, "        COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n", commandNames(cmds))
	}
}

// zshEscape escapes text for a single-quoted _arguments argument.
func zshEscape(s string) string {
	r := strings.NewReplacer(`'`, `'\''`, `[`, `\[`, `]`, `\]`, `:`, `\:`)
	return r.Replace(s)
}

func zshGlob(globs []string) string {
	exts := make([]string, len(globs))
	for i, g := range globs {
		exts[i] = strings.TrimPrefix(g, "*.")
	}
	return "*.(" + strings.Join(exts, "|") + ")"
}

func zshFlagSpec(f flagDef) string {
	desc := zshEscape(f.Desc)

	var action string
	switch f.Type {
	case flagBool:
	case flagEnum:
		action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagFile:
		action = fmt.Sprintf(":%s:_files -g \"%s\"", f.Long, zshGlob(f.Values))
	case flagDir:
		action = fmt.Sprintf(":%s:_files -/", f.Long)
	default:
		action = fmt.Sprintf(":%s: ", f.Long)
	}

	repeat := ""
	if f.Long == "stylesheet" {
		repeat = "*"
	}
	if f.Short == "" {
		return fmt.Sprintf("'%s--%s[%s]%s'", repeat, f.Long, desc, action)
	}
	exclusion := fmt.Sprintf("(-%s --%s)", f.Short, f.Long)
	return fmt.Sprintf("'%s'{-%s,--%s}'[%s]%s'", exclusion, f.Short, f.Long, desc, action)
}

func generateZsh(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("#compdef md2html\n\n")
	b.WriteString("_md2html() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	fmt.Fprintf(&b, "        _files -g \"%s\"\n", zshGlob(markdownGlobs))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    local cmd=$words[2]\n")
	b.WriteString("    if [[ -n ${commands[(r)$cmd:*]} ]]; then\n")
	b.WriteString("        shift words\n")
	b.WriteString("        (( CURRENT-- ))\n")
	b.WriteString("    else\n")
	b.WriteString("        cmd=convert\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case $cmd in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		var specs []string
		for _, f := range c.Flags {
			specs = append(specs, zshFlagSpec(f))
		}
		switch {
		case c.Files:
			specs = append(specs, fmt.Sprintf("'*:markdown file:_files -g \"%s\"'", zshGlob(markdownGlobs)))
		case len(c.Args) > 0:
			specs = append(specs, fmt.Sprintf("'1:shell:(%s)'", strings.Join(c.Args, " ")))
		case c.Name == "help":
			specs = append(specs, fmt.Sprintf("'1:command:(%s)'", commandNames(cmds)))
		}
		if len(specs) > 0 {
			b.WriteString("        _arguments \\\n            ")
			b.WriteString(strings.Join(specs, " \\\n            "))
			b.WriteString("\n")
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _md2html md2html\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// fishEscape escapes text for a single-quoted fish string.
func fishEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return r.Replace(s)
}

func generateFish(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("# fish completion for md2html\n\n")
	b.WriteString("complete -c md2html -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c md2html -n __fish_use_subcommand -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	b.WriteString("complete -c md2html -n __fish_use_subcommand -k -a '(__fish_complete_suffix .md)'\n")

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_seen_subcommand_from %s'", c.Name)
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c md2html -n %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch f.Type {
			case flagEnum:
				line += fmt.Sprintf(" -x -a '%s'", strings.Join(f.Values, " "))
			case flagFile:
				line += " -r -F"
			case flagDir:
				line += " -x -a '(__fish_complete_directories)'"
			case flagString, flagInt:
				line += " -x"
			}
			line += fmt.Sprintf(" -d '%s'\n", fishEscape(f.Desc))
			b.WriteString(line)
		}
		switch {
		case c.Files:
			fmt.Fprintf(&b, "complete -c md2html -n %s -k -a '(__fish_complete_suffix .md)'\n", cond)
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "complete -c md2html -n %s -x -a '%s'\n", cond, strings.Join(c.Args, " "))
		case c.Name == "help":
			fmt.Fprintf(&b, "complete -c md2html -n %s -x -a '%s'\n", cond, commandNames(cmds))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
