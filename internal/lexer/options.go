package lexer

import (
	"cxxtweak/internal/diag"
	"cxxtweak/internal/source"
)

type Options struct {
	Reporter diag.Reporter // может быть nil - ошибки игнорируем, но лексим дальше
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}
