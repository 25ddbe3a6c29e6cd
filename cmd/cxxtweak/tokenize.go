package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/diagfmt"
	"cxxtweak/internal/lexer"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
)

func newTokenizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] file",
		Short: "Tokenize a C++ source file",
		Long:  `Tokenize prints the preprocessing tokens of a file, or with --expanded the tokens after macro expansion`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenize(a, cmd, args[0])
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().Bool("expanded", false, "print tokens after macro expansion")
	return cmd
}

func runTokenize(a *app, cmd *cobra.Command, path string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	expanded, err := cmd.Flags().GetBool("expanded")
	if err != nil {
		return fmt.Errorf("failed to get expanded flag: %w", err)
	}

	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	file := fs.Get(id)
	bag := diag.NewBag(a.maxDiag)
	rep := diag.BagReporter{Bag: bag}
	defer a.printDiagnostics(cmd, bag, fs)

	out := cmd.OutOrStdout()
	if expanded {
		buf := pp.Preprocess(file, pp.Options{Reporter: rep, Defines: a.defines})
		return diagfmt.FormatExpandedPretty(out, buf)
	}
	tokens := lexer.Tokenize(file, lexer.Options{Reporter: rep})
	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(out, tokens, fs)
	case "json":
		return diagfmt.FormatTokensJSON(out, tokens)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
