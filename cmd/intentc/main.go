// Command intentc compiles Intent Definition Language source files into
// generated service code. Grounded on the teacher's cmd/human/main.go
// manual os.Args dispatch (no CLI framework), reduced to the three
// subcommands this compiler actually needs and re-pointed at the typed
// parser/validator/ir/dispatch pipeline (§6).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/intentc/intentc/internal/cli"
	"github.com/intentc/intentc/internal/config"
	"github.com/intentc/intentc/internal/dispatch"
	cerr "github.com/intentc/intentc/internal/errors"
	"github.com/intentc/intentc/internal/ir"
	"github.com/intentc/intentc/internal/parser"
	"github.com/intentc/intentc/internal/validator"
)

var version = "0.1.0"

// Exit codes, matching §6 exactly.
const (
	exitSuccess      = 0
	exitUsageError   = 1
	exitParseError   = 2
	exitSemanticErr  = 3
	exitGeneratorErr = 4
)

func main() {
	args := filterGlobalFlags(os.Args[1:])

	if len(args) < 1 {
		printUsage()
		os.Exit(exitUsageError)
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("intentc v%s\n", version)
	case "help", "--help", "-h":
		printUsage()
	case "compile":
		os.Exit(cmdCompile(args[1:]))
	case "check":
		os.Exit(cmdCheck(args[1:]))
	default:
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Unknown command: %s", args[0])))
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(exitUsageError)
	}
}

// filterGlobalFlags strips --no-color from the args list and applies it.
func filterGlobalFlags(args []string) []string {
	var filtered []string
	for _, arg := range args {
		if arg == "--no-color" {
			cli.ColorEnabled = false
		} else {
			filtered = append(filtered, arg)
		}
	}
	return filtered
}

// ── check ──

func cmdCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	input := fs.String("input", "", "path to the .intent source file")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsageError
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: intentc check --input <path>")
		return exitUsageError
	}

	source, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error reading %s: %v", *input, err)))
		return exitUsageError
	}

	prog, perr := parser.Parse(string(source))
	if perr != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error in %s: %v", *input, perr)))
		return exitParseError
	}

	errs := validator.Validate(prog)
	if errs.HasErrors() {
		fmt.Fprintln(os.Stderr, errs.Format())
		fmt.Fprintf(os.Stderr, "\n%s\n", cli.Error(fmt.Sprintf("%d error(s) found", len(errs.All()))))
		return exitSemanticErr
	}

	msg := fmt.Sprintf("%s is valid", *input)
	if parts := summarizeProgram(prog); len(parts) > 0 {
		msg += " — " + strings.Join(parts, ", ")
	}
	fmt.Println(cli.Success(msg))
	return exitSuccess
}

// summarizeProgram lists what was declared, the way the teacher's cmdCheck
// reported data/page/API counts after a clean validation pass.
func summarizeProgram(prog *parser.Program) []string {
	var parts []string
	if n := len(prog.Entities); n > 0 {
		parts = append(parts, fmt.Sprintf("%d entit%s", n, pluralY(n)))
	}
	if n := len(prog.Policies); n > 0 {
		parts = append(parts, fmt.Sprintf("%d polic%s", n, pluralY(n)))
	}
	if n := len(prog.Rules); n > 0 {
		parts = append(parts, fmt.Sprintf("%d rule%s", n, plural(n)))
	}
	if n := len(prog.Actions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d action%s", n, plural(n)))
	}
	return parts
}

// ── compile ──

func cmdCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	input := fs.String("input", "", "path to the .intent source file")
	output := fs.String("output", "", "directory to write generated code into")
	target := fs.String("target", "", "generation target (default: python, or config default_target)")
	verbose := fs.Bool("verbose", false, "print the process IR as YAML before generation")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsageError
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: intentc compile --input <path> --output <dir> [--target python] [--verbose]")
		return exitUsageError
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Config error: %v", err)))
		return exitUsageError
	}

	if *target == "" {
		*target = cfg.DefaultTarget
	}
	if *target == "" {
		*target = "python"
	}
	if *output == "" {
		*output = cfg.DefaultOutputDir
	}
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: intentc compile --input <path> --output <dir> [--target python] [--verbose]")
		return exitUsageError
	}

	source, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error reading %s: %v", *input, err)))
		return exitUsageError
	}

	prog, perr := parser.Parse(string(source))
	if perr != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Parse error in %s: %v", *input, perr)))
		return exitParseError
	}

	errs := validator.Validate(prog)
	if errs.HasErrors() {
		fmt.Fprintln(os.Stderr, errs.Format())
		fmt.Fprintf(os.Stderr, "\n%s\n", cli.Error(fmt.Sprintf("%d error(s) found — compile aborted", len(errs.All()))))
		return exitSemanticErr
	}

	app := ir.Build(prog)

	if *verbose {
		yaml, yerr := ir.ToYAML(app)
		if yerr != nil {
			fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Serialization error: %v", yerr)))
			return exitGeneratorErr
		}
		fmt.Print(yaml)
		fmt.Println()
	}

	result, genErr := dispatch.Generate(app, *target, *output)
	if genErr != nil {
		fmt.Fprintln(os.Stderr, cli.Error(genErr.Error()))
		if _, ok := genErr.(*cerr.ConfigError); ok {
			return exitUsageError
		}
		return exitGeneratorErr
	}

	fmt.Println(cli.Success(fmt.Sprintf("Compiled %s → %s (%d files, target %q, %s)",
		*input, result.Dir, result.Files, result.Target, result.Duration)))
	return exitSuccess
}

// ── Helpers ──

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func printUsage() {
	fmt.Print(`intentc — Intent Definition Language compiler.

Usage:
  intentc <command> [options]

Commands:
  check --input <path>                            Validate an .intent file
  compile --input <path> --output <dir>            Compile to generated code
          [--target python] [--verbose]
  version                                          Print the compiler version

Flags:
  --no-color        Disable colored output
  --version, -v     Print the compiler version
  --help, -h        Show this help message

Exit codes:
  0  success
  1  usage error
  2  parse error
  3  semantic error
  4  generator error
`)
}
