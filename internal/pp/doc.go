// Package pp runs a small C preprocessor over one file and records, for
// every expanded token, where it was spelled and which macro expansion
// produced it.
//
// Supported: object-like and function-like #define (variadic included),
// #undef, stringification and token pasting, the usual rescan rules with
// disabled macros. #include is not followed; conditional directives are
// dropped and every branch is kept. That is enough to answer the questions
// a refactoring needs: is this token written in the file, inside a macro
// argument, or inside a macro body; and which file bytes does a run of
// expanded tokens come from.
package pp
