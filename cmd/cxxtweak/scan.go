package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cxxtweak/internal/diagfmt"
	"cxxtweak/internal/driver"
	"cxxtweak/internal/fix"
)

func newScanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Find every place in a directory where a tweak applies",
		Long: `Scan analyzes every source file under dir (default: the working directory)
and lists each qualified reference a refactoring tweak can rewrite. With
--apply all of them are applied; overlapping edits in one file are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runScan(a, cmd, dir)
		},
	}
	cmd.Flags().Bool("apply", false, "apply every site and write the files")
	cmd.Flags().Bool("diff", false, "print the combined diff instead of listing sites")
	cmd.Flags().Int("jobs", 0, "number of files analyzed in parallel; overrides [scan].jobs")
	cmd.Flags().Bool("no-cache", false, "do not read or write the effect cache")
	cmd.Flags().Bool("clear-cache", false, "drop the effect cache before scanning")
	cmd.Flags().String("ui", "auto", "show a progress view on stderr (auto|on|off)")
	return cmd
}

func runScan(a *app, cmd *cobra.Command, dir string) error {
	apply, _ := cmd.Flags().GetBool("apply")
	showDiff, _ := cmd.Flags().GetBool("diff")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	clearCache, _ := cmd.Flags().GetBool("clear-cache")
	uiFlag, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	opts := driver.ScanOptions{
		Jobs:       a.cfg.Scan.Jobs,
		Extensions: a.cfg.Scan.Extensions,
		Disabled:   a.disabled,
		Analyze:    a.analyzeOptions(),
		Tweak:      a.cfg.TweakOptions(),
	}
	if cmd.Flags().Changed("jobs") {
		opts.Jobs, _ = cmd.Flags().GetInt("jobs")
	}
	if a.cfg.Cache.Enabled && !noCache {
		cache, err := driver.OpenEffectCache(a.cfg.Cache.Dir, "cxxtweak")
		if err != nil {
			warnf(cmd, "effect cache disabled: %v", err)
		} else {
			if clearCache {
				if err := cache.DropAll(); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
			}
			opts.Cache = cache
		}
	}

	var res *driver.ScanResult
	if shouldUseTUI(mode, cmd.ErrOrStderr()) {
		res, err = runScanWithUI(cmd.Context(), cmd.ErrOrStderr(), dir, opts)
	} else {
		res, err = driver.ScanDir(cmd.Context(), dir, opts)
	}
	if err != nil {
		return err
	}
	wd, _ := os.Getwd()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	for _, f := range res.Files {
		if f.Err != nil {
			warnf(cmd, "%s: %v", f.Path, f.Err)
			continue
		}
		if f.Bag != nil && f.Bag.HasErrors() {
			a.printDiagnostics(cmd, f.Bag, res.FileSet)
		}
		if apply || showDiff {
			continue
		}
		for i := range f.Sites {
			s := &f.Sites[i]
			fmt.Fprintf(out, "%s:%d:%d: %s: %s\n", diagfmt.FormatPath(s.Path, a.pathMode(), wd), s.Pos.Line, s.Pos.Col, s.TweakID, s.Title)
		}
		a.printTimings(cmd, f.Timing)
	}

	if apply || showDiff {
		result, err := fix.Apply(res.FileSet, res.Fixes(), fix.ApplyOptions{Mode: fix.ApplyModeAll, Write: apply})
		if err != nil {
			return err
		}
		for _, s := range result.Skipped {
			fmt.Fprintf(errOut, "skipped %s: %s\n", s.ID, s.Reason)
		}
		if showDiff {
			color := a.useColor(out)
			for _, ch := range result.FileChanges {
				diff := fix.UnifiedDiff(ch.Path, ch.Before, ch.After, a.cfg.Output.DiffContext)
				if err := diagfmt.ColorDiff(out, diff, color); err != nil {
					return err
				}
			}
		}
		if apply {
			fmt.Fprintf(errOut, "applied %d of %d sites in %d files\n", len(result.Applied), res.SiteCount(), len(result.FileChanges))
		}
		return nil
	}
	fmt.Fprintf(errOut, "%d sites in %d files (%d cached)\n", res.SiteCount(), len(res.Files), res.CacheHits)
	return nil
}
