package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cxxtweak/internal/lsp"
)

func newLSPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Run the cxxtweak language server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			debounce, _ := cmd.Flags().GetDuration("debounce")
			server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), lsp.ServerOptions{
				Debounce:       debounce,
				MaxDiagnostics: a.maxDiag,
				Analyze:        a.analyzeOptions(),
				Tweak:          a.cfg.TweakOptions(),
				Disabled:       a.disabled,
				Log:            cmd.ErrOrStderr(),
			})
			if err := server.Run(cmd.Context()); err != nil {
				if errors.Is(err, lsp.ErrExit) {
					return nil
				}
				if errors.Is(err, lsp.ErrExitWithoutShutdown) {
					return fmt.Errorf("lsp exit without shutdown")
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().Duration("debounce", 0, "delay before diagnostics are recomputed after a change")
	return cmd
}
