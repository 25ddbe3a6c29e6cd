// Package tweak implements cursor-driven source refactorings.
//
// A tweak is prepared against a Selection and, if Prepare succeeds, applied
// to produce an Effect: a set of replacements for the selected file. Both
// steps are synchronous and read only the immutable inputs of the selection.
package tweak

import (
	"cxxtweak/internal/fix"
	"cxxtweak/internal/source"
)

// Intent tells clients how to present a tweak.
type Intent uint8

const (
	// IntentRefactor tweaks rewrite code.
	IntentRefactor Intent = iota
	// IntentInfo tweaks only report something about the selection.
	IntentInfo
)

func (i Intent) String() string {
	if i == IntentInfo {
		return "info"
	}
	return "refactor"
}

// Tweak is one refactoring. Instances are single-use: Prepare stores what
// Apply needs, so a fresh instance is created for every request.
type Tweak interface {
	ID() string
	// Title is valid after a successful Prepare.
	Title() string
	Intent() Intent
	// Hidden tweaks are only offered when asked for by ID.
	Hidden() bool
	// Prepare reports whether the tweak applies. It must be fast and must
	// not fail loudly: anything unexpected means "not applicable".
	Prepare(sel *Selection) bool
	Apply(sel *Selection) (Effect, error)
}

// Effect is the outcome of Apply.
type Effect struct {
	File    source.FileID
	Edits   fix.Replacements
	Message string // for IntentInfo tweaks
}

// MainFileEdit wraps replacements of the selected file.
func MainFileEdit(file source.FileID, edits fix.Replacements) Effect {
	return Effect{File: file, Edits: edits}
}

// ShowMessage wraps an informational result.
func ShowMessage(msg string) Effect {
	return Effect{Message: msg}
}

// Apply returns content with the effect's edits applied.
func (e *Effect) Apply(content []byte) ([]byte, error) {
	return e.Edits.Apply(content)
}

// HasEdits reports whether the effect changes the file.
func (e *Effect) HasEdits() bool { return e.Edits.Len() > 0 }
