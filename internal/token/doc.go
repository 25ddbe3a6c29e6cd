// Package token defines C-family preprocessing tokens.
// Invariants:
//   - Token.Text is exactly the bytes covered by Token.Span.
//   - Keywords are not distinguished here; `namespace`, `using` and friends
//     are plain identifiers until the syntax layer looks at them.
//   - Comments and whitespace are Trivia attached to the following token.
package token
