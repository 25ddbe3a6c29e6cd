package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cxxtweak/internal/version"
)

// newRootCmd builds the command tree. Every invocation gets its own app so
// that tests can run commands side by side.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:               "cxxtweak",
		Short:             "Cursor-driven refactorings for C++ sources",
		Long:              `cxxtweak offers and applies source tweaks, such as replacing a namespace qualifier with a using-declaration`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "", "colorize output (auto|on|off); overrides [output].color")
	pf.String("config", "", "path to cxxtweak.toml (default: search upward from the working directory)")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.StringSliceP("define", "D", nil, "predefine an object-like macro NAME[=VALUE]")
	pf.StringSlice("disable", nil, "tweak IDs not to offer; adds to [tweaks].disabled")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.String("trace-format", "", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "ring buffer size for --trace-mode ring|both")
	pf.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval")
	pf.String("cpuprofile", "", "write a CPU profile to this file")
	pf.String("memprofile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")

	root.AddCommand(
		newTokenizeCmd(a),
		newParseCmd(a),
		newDiagCmd(a),
		newListCmd(a),
		newApplyCmd(a),
		newScanCmd(a),
		newLSPCmd(a),
		newVersionCmd(a),
	)
	return root, a
}

// main runs the root command and exits with status 1 on error.
func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func warnf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "cxxtweak: "+format+"\n", args...)
}
