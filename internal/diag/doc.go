// Package diag defines the diagnostic records shared by the lexer,
// preprocessor, parser and semantic passes.
//
// Producers talk to a Reporter; the driver collects everything into a Bag.
// Rendering lives in internal/diagfmt. Diagnostics never abort analysis:
// a file with errors still yields a tree, and tweaks decide for themselves
// whether the selected region is usable.
package diag
