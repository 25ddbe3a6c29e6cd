package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
	"cxxtweak/internal/token"
)

type TokenOutput struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Span    source.Span `json:"span"`
	Leading []string    `json:"leading,omitempty"`
}

// FormatTokensPretty выводит токены лексера в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		startPos, endPos := fs.Resolve(tok.Span)

		var leading []string
		for _, trivia := range tok.Leading {
			leading = append(leading, trivia.Kind.String())
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%3d: %-15s", i+1, tok.Kind.String())
		if tok.Text != "" {
			fmt.Fprintf(&sb, " %q", tok.Text)
		}
		fmt.Fprintf(&sb, " at %d:%d-%d:%d", startPos.Line, startPos.Col, endPos.Line, endPos.Col)
		if len(leading) > 0 {
			fmt.Fprintf(&sb, " (leading: %s)", strings.Join(leading, ", "))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены лексера в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		out := TokenOutput{Kind: tok.Kind.String(), Text: tok.Text, Span: tok.Span}
		for _, trivia := range tok.Leading {
			out.Leading = append(out.Leading, trivia.Kind.String())
		}
		output = append(output, out)
		if tok.Kind == token.EOF {
			break
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// FormatExpandedPretty prints the preprocessed token stream, one token per
// line, with the place each token was spelled.
//
//	3: Ident           "f"   file 1:12
//	4: ColonColon      "::"  arg  2:5   exp 1 (ID)
func FormatExpandedPretty(w io.Writer, buf *pp.Buffer) error {
	for i, tok := range buf.Tokens {
		pos := buf.File.Position(tok.Loc.Off)
		var sb strings.Builder
		fmt.Fprintf(&sb, "%3d: %-15s %-6q %-4s %d:%d", i, tok.Kind.String(), tok.Text, tok.Loc.Kind, pos.Line, pos.Col)
		if tok.Loc.Expansion != pp.NoExpansion {
			fmt.Fprintf(&sb, "  exp %d (%s)", tok.Loc.Expansion, buf.Expansion(tok.Loc.Expansion).Macro)
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
