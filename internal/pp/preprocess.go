package pp

import (
	"cxxtweak/internal/diag"
	"cxxtweak/internal/lexer"
	"cxxtweak/internal/source"
)

type Options struct {
	Reporter diag.Reporter
	// Predefined macros, applied before the file as if by #define lines.
	Defines map[string]string
}

// Preprocess lexes and expands file.
func Preprocess(file *source.File, opts Options) *Buffer {
	e := &engine{
		file:     file,
		opts:     opts,
		raw:      lexer.Tokenize(file, lexer.Options{Reporter: opts.Reporter}),
		macros:   make(map[string]*Macro),
		disabled: make(map[*Macro]int),
		exps:     []Expansion{{First: -1, Last: -1}},
	}
	e.predefine(opts.Defines)

	var out []ppToken
	for {
		t, ok := e.read()
		if !ok {
			break
		}
		e.handle(t, func(t ppToken) { out = append(out, t) })
	}
	return newBuffer(file, out, e.exps, e.macros)
}

// predefine installs -D style macros; their bodies point at no file bytes.
func (e *engine) predefine(defs map[string]string) {
	for name, body := range defs {
		m := &Macro{Name: name, Def: source.Span{File: e.file.ID}}
		for _, t := range lexer.LexString(body) {
			t.Span = source.Span{File: e.file.ID}
			m.Body = append(m.Body, t)
		}
		e.macros[name] = m
	}
}
