package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cxxtweak/internal/diagfmt"
	"cxxtweak/internal/driver"
	"cxxtweak/internal/fix"
	"cxxtweak/internal/tweak"
)

func newApplyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply FILE:LINE:COL",
		Short: "Run a tweak at a position and show or write the result",
		Long: `Apply runs one tweak at the given position. Refactorings print a unified
diff of their edits, or rewrite the file with --write; informational tweaks
print their message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(a, cmd, args[0])
		},
	}
	cmd.Flags().String("tweak", "add-using", "ID of the tweak to run")
	cmd.Flags().String("end", "", "end of the selection as LINE:COL")
	cmd.Flags().Bool("write", false, "write the result back to the file")
	cmd.Flags().String("anchor", "", "place new using-declarations after|before an existing one; overrides [insert].anchor")
	cmd.Flags().Int("context", -1, "diff context lines; overrides [output].diff_context")
	return cmd
}

func runApply(a *app, cmd *cobra.Command, arg string) error {
	loc, err := parseLocation(arg)
	if err != nil {
		return err
	}
	id, _ := cmd.Flags().GetString("tweak")
	end, _ := cmd.Flags().GetString("end")
	write, _ := cmd.Flags().GetBool("write")

	opts := a.cfg.TweakOptions()
	if anchor, _ := cmd.Flags().GetString("anchor"); anchor != "" {
		if opts.Anchor, err = tweak.ParseAnchorPlacement(anchor); err != nil {
			return err
		}
	}
	diffContext := a.cfg.Output.DiffContext
	if n, _ := cmd.Flags().GetInt("context"); n >= 0 {
		diffContext = n
	}

	snap, err := driver.AnalyzePath(cmd.Context(), loc.Path, a.analyzeOptions())
	if err != nil {
		return err
	}
	a.printDiagnostics(cmd, snap.Bag, snap.FileSet)
	start, stop, err := selection(snap, loc, end)
	if err != nil {
		return err
	}
	outcome, err := snap.RunTweak(cmd.Context(), id, driver.TweakRequest{
		Start:    start,
		End:      stop,
		Options:  opts,
		Disabled: a.disabled,
	})
	a.printTimings(cmd, snap.Timing)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outcome.Effect.Message != "" {
		fmt.Fprintln(out, outcome.Effect.Message)
	}
	if !outcome.Effect.HasEdits() {
		return nil
	}
	if write {
		res, err := fix.Apply(snap.FileSet, []fix.Fix{{
			ID:    outcome.ID,
			Title: outcome.Title,
			Edits: outcome.Effect.Edits,
		}}, fix.ApplyOptions{Mode: fix.ApplyModeAll, Write: true})
		if err != nil {
			return err
		}
		if len(res.Skipped) > 0 {
			return fmt.Errorf("%s: %s", res.Skipped[0].ID, res.Skipped[0].Reason)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", snap.File.Path, outcome.Title)
		return nil
	}
	after, err := outcome.Effect.Apply(snap.File.Content)
	if err != nil {
		return err
	}
	diff := fix.UnifiedDiff(snap.File.Path, snap.File.Content, after, diffContext)
	return diagfmt.ColorDiff(out, diff, a.useColor(out))
}
