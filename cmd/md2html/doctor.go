package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/mathengine"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Assets   assetInfo  `json:"assets"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found    bool   `json:"found"`
	Required bool   `json:"required"` // pdf.enabled in config
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Sandbox  bool   `json:"sandbox"`
}

// assetInfo holds asset root and math library checks.
type assetInfo struct {
	Root       string `json:"root,omitempty"`
	RootOK     bool   `json:"root_ok"`
	MathEngine string `json:"math_engine"`
	KaTeXDir   string `json:"katex_dir,omitempty"`
	KaTeXOK    bool   `json:"katex_ok"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Container  bool   `json:"container"`
	CI         bool   `json:"ci"`
	NoSandbox  string `json:"rod_no_sandbox"`
	BrowserBin string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	var jsonOutput bool
	var name string
	fs := newDoctorFlagSet(&jsonOutput, &name)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		printDoctorUsage(env.Stderr)
		return ExitUsage
	}

	cfg, err := loadConfig(name)
	if err != nil {
		fmt.Fprintln(env.Stderr, formatError(err))
		return exitCodeFor(err)
	}

	result := runDoctor(cfg)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// newDoctorFlagSet registers the doctor flags.
func newDoctorFlagSet(jsonOutput *bool, name *string) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.BoolVar(jsonOutput, "json", false, "print results as JSON")
	fs.StringVar(name, "config", "", "config file name or path")
	return fs
}

// runDoctor performs all diagnostic checks against cfg.
func runDoctor(cfg *config.Config) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Chrome: chromeInfo{Required: cfg.PDF.Enabled},
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkAssets(result, cfg)
	checkEnvironment(result)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// report records a problem as an error when required, else as a warning.
func (r *doctorResult) report(required bool, msg string) {
	if required {
		r.Errors = append(r.Errors, msg)
	} else {
		r.Warnings = append(r.Warnings, msg)
	}
}

// checkChrome detects Chrome/Chromium. A missing browser is an error only
// when the config enables PDF output.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.report(result.Chrome.Required,
				"Chrome/Chromium not found; --pdf needs Chrome or ROD_BROWSER_BIN")
			return
		}
	}

	if !fileutil.FileExists(chromePath) {
		result.report(result.Chrome.Required, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- browser path from rod lookup or env
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkAssets verifies the asset root and, for KaTeX, the math library.
func checkAssets(result *doctorResult, cfg *config.Config) {
	result.Assets.MathEngine = cfg.Engines.Math
	result.Assets.Root = cfg.Document.Root

	if cfg.Document.Root == "" {
		result.Assets.RootOK = true
	} else if _, err := assets.NewFilesystemLoader(cfg.Document.Root); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Asset root unusable: %v", err))
	} else {
		result.Assets.RootOK = true
		if !fileutil.DirExists(cfg.Document.Root) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Asset root %s does not exist; built-in assets are used", cfg.Document.Root))
		}
	}

	if cfg.Engines.Math != config.MathKaTeX {
		return
	}
	result.Assets.KaTeXDir = cfg.Engines.KaTeXDir
	script := filepath.Join(cfg.Engines.KaTeXDir, mathengine.ScriptName)
	if fileutil.FileExists(script) {
		result.Assets.KaTeXOK = true
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("KaTeX library not found at %s", script))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container = fileutil.FileExists("/.dockerenv") ||
		os.Getenv("container") != "" ||
		os.Getenv("KUBERNETES_SERVICE_HOST") != ""

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chrome.Required && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// checkSystem verifies the temp directory used for PDF export.
func checkSystem(result *doctorResult) {
	_, cleanup, err := fileutil.WriteTempFile("", "test", "html")
	if err != nil {
		result.report(result.Chrome.Required, fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	cleanup()
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "md2html doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium (for --pdf)")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else if r.Chrome.Required {
		fmt.Fprintln(w, "  [ERROR] Not found")
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Assets")
	if r.Assets.Root == "" {
		fmt.Fprintln(w, "  [OK] Root: built-in")
	} else if r.Assets.RootOK {
		fmt.Fprintf(w, "  [OK] Root: %s\n", r.Assets.Root)
	} else {
		fmt.Fprintf(w, "  [ERROR] Root: %s\n", r.Assets.Root)
	}
	fmt.Fprintf(w, "  [OK] Math engine: %s\n", r.Assets.MathEngine)
	if r.Assets.KaTeXDir != "" {
		if r.Assets.KaTeXOK {
			fmt.Fprintf(w, "  [OK] KaTeX: %s\n", r.Assets.KaTeXDir)
		} else {
			fmt.Fprintf(w, "  [ERROR] KaTeX: %s\n", r.Assets.KaTeXDir)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
