package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cxxtweak/internal/driver"
)

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list FILE:LINE:COL",
		Short: "List the tweaks available at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(a, cmd, args[0])
		},
	}
	cmd.Flags().String("end", "", "end of the selection as LINE:COL")
	return cmd
}

func runList(a *app, cmd *cobra.Command, arg string) error {
	loc, err := parseLocation(arg)
	if err != nil {
		return err
	}
	end, _ := cmd.Flags().GetString("end")
	snap, err := driver.AnalyzePath(cmd.Context(), loc.Path, a.analyzeOptions())
	if err != nil {
		return err
	}
	a.printDiagnostics(cmd, snap.Bag, snap.FileSet)
	start, stop, err := selection(snap, loc, end)
	if err != nil {
		return err
	}
	avail := snap.Available(cmd.Context(), driver.TweakRequest{
		Start:    start,
		End:      stop,
		Options:  a.cfg.TweakOptions(),
		Disabled: a.disabled,
	})
	a.printTimings(cmd, snap.Timing)
	if len(avail) == 0 {
		warnf(cmd, "no tweaks available at %s:%d:%d", loc.Path, loc.Line, loc.Col)
		return nil
	}
	out := cmd.OutOrStdout()
	for _, o := range avail {
		fmt.Fprintf(out, "%-12s %-9s %s\n", o.ID, o.Intent, o.Title)
	}
	return nil
}
