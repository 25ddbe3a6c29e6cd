package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cxxtweak/internal/driver"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse file",
		Short: "Print the syntax tree of a C++ source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := driver.AnalyzePath(cmd.Context(), args[0], a.analyzeOptions())
			if err != nil {
				return fmt.Errorf("parse failed: %w", err)
			}
			a.printDiagnostics(cmd, snap.Bag, snap.FileSet)
			a.printTimings(cmd, snap.Timing)
			return snap.Tree.Dump(cmd.OutOrStdout())
		},
	}
}
