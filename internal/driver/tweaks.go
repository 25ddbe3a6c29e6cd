package driver

import (
	"context"
	"errors"
	"fmt"

	"cxxtweak/internal/trace"
	"cxxtweak/internal/tweak"
)

var (
	// ErrUnknownTweak is returned for an ID no tweak is registered under.
	ErrUnknownTweak = errors.New("unknown tweak")
	// ErrTweakUnavailable is returned when the tweak does not apply to the selection.
	ErrTweakUnavailable = errors.New("tweak is not available here")
)

// TweakRequest describes where and how tweaks are looked for.
type TweakRequest struct {
	Start, End uint32
	Options    tweak.Options
	// Disabled lists tweak IDs that must not be offered.
	Disabled []string
}

// Outcome is the result of running one tweak.
type Outcome struct {
	ID     string
	Title  string
	Intent tweak.Intent
	Effect tweak.Effect
}

// Available lists the visible, enabled tweaks applicable to the request,
// with their titles computed.
func (s *Snapshot) Available(ctx context.Context, req TweakRequest) []Outcome {
	_, span := trace.Start(ctx, trace.ScopeTweak, "available")
	defer span.End("")

	sel := s.Select(req.Start, req.End, req.Options).WithSpan(span)
	var out []Outcome
	for _, t := range tweak.Default.Available(sel, req.Disabled) {
		out = append(out, Outcome{ID: t.ID(), Title: t.Title(), Intent: t.Intent()})
	}
	return out
}

// RunTweak prepares and applies the tweak id at the request's selection.
// Hidden tweaks may be run by ID; disabled ones may not.
func (s *Snapshot) RunTweak(ctx context.Context, id string, req TweakRequest) (Outcome, error) {
	for _, d := range req.Disabled {
		if d == id {
			return Outcome{}, fmt.Errorf("%w: %s is disabled", ErrTweakUnavailable, id)
		}
	}
	t, ok := tweak.Default.New(id)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownTweak, id)
	}

	_, span := trace.Start(ctx, trace.ScopeTweak, id)
	sel := s.Select(req.Start, req.End, req.Options).WithSpan(span)
	if !t.Prepare(sel) {
		span.End("unavailable")
		pos := s.File.Position(req.Start)
		return Outcome{}, fmt.Errorf("%w: %s at %s:%d:%d", ErrTweakUnavailable, id, s.File.Path, pos.Line, pos.Col)
	}
	eff, err := t.Apply(sel)
	if err != nil {
		span.End("error: " + err.Error())
		return Outcome{}, fmt.Errorf("%s: %w", id, err)
	}
	span.End(fmt.Sprintf("%d edits", eff.Edits.Len()))
	return Outcome{ID: id, Title: t.Title(), Intent: t.Intent(), Effect: eff}, nil
}
