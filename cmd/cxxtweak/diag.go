package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/diagfmt"
	"cxxtweak/internal/driver"
	"cxxtweak/internal/source"
)

var errHasDiagnostics = errors.New("diagnostics reported")

func newDiagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag path...",
		Short: "Report preprocessor, syntax and name-resolution problems",
		Long: `Diag analyzes the given files (directories are walked for sources) and
prints what the tweaks would see as broken: malformed macros, syntax errors,
unresolved or non-namespace qualifiers. It exits non-zero when an error is
reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiag(a, cmd, args)
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
	cmd.Flags().Bool("positions", true, "include line and column in json output")
	cmd.Flags().Bool("notes", true, "include notes")
	return cmd
}

func runDiag(a *app, cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}
	sevFlag, _ := cmd.Flags().GetString("min-severity")
	minSev, err := diag.ParseSeverity(sevFlag)
	if err != nil {
		return err
	}
	positions, _ := cmd.Flags().GetBool("positions")
	notes, _ := cmd.Flags().GetBool("notes")

	paths, err := expandSources(args, a.cfg.Scan.Extensions)
	if err != nil {
		return err
	}
	fs := source.NewFileSet()
	all := diag.NewBag(max(a.maxDiag, 1) * len(paths))
	opts := a.analyzeOptions()
	for _, p := range paths {
		id, err := fs.Load(p)
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		snap, err := driver.Analyze(cmd.Context(), fs, id, opts)
		if err != nil {
			return err
		}
		for _, d := range snap.Bag.Filter(minSev) {
			all.Add(d)
		}
		a.printTimings(cmd, snap.Timing)
	}
	all.Sort()

	wd, _ := os.Getwd()
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, all, fs, diagfmt.JSONOpts{
			IncludePositions: positions,
			PathMode:         a.pathMode(),
			BaseDir:          wd,
			Max:              a.maxDiag,
			IncludeNotes:     notes,
		})
	default:
		err = diagfmt.Pretty(out, all, fs, diagfmt.PrettyOpts{
			Color:     a.useColor(out),
			PathMode:  a.pathMode(),
			BaseDir:   wd,
			ShowNotes: notes,
		})
	}
	if err != nil {
		return err
	}
	if all.HasErrors() {
		return errHasDiagnostics
	}
	return nil
}

// expandSources replaces directories in args with the sources under them.
func expandSources(args, exts []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		files, err := driver.ListSources(arg, exts)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}
