package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFilter(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeTweak, false},
		{LevelDetail, ScopeTweak, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
	if !LevelError.Records(ScopeNode) {
		t.Fatalf("error level must record everything for the ring")
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel: %v %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode: %v %v", m, err)
	}
	if f, err := ParseFormat("ndjson"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat: %v %v", f, err)
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	root := Begin(tr, ScopeDriver, "apply", 0)
	child := root.Child(ScopeTweak, "addusing.prepare")
	child.WithExtra("name", "f").End("ok")
	root.Child(ScopeNode, "hidden").End("")
	root.End("")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "  → addusing.prepare") {
		t.Fatalf("child not indented: %q", lines[1])
	}
	if !strings.Contains(lines[2], "(ok)") || !strings.Contains(lines[2], "{name=f}") {
		t.Fatalf("end line misses detail/extra: %q", lines[2])
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Begin(tr, ScopePass, "parse", 0).End("done")

	dec := json.NewDecoder(&buf)
	var kinds []string
	for dec.More() {
		var ev jsonEvent
		if err := dec.Decode(&ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		kinds = append(kinds, ev.Kind)
	}
	if strings.Join(kinds, ",") != "begin,end" {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(3, LevelError)
	for _, name := range []string{"a", "b", "c", "d"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeNode, Name: name})
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("dump: %q", buf.String())
	}
}

func TestRingOf(t *testing.T) {
	r := NewRingTracer(4, LevelPhase)
	var buf bytes.Buffer
	m := NewMultiTracer(LevelPhase, NewStreamTracer(&buf, LevelPhase, FormatText), r)
	if RingOf(m) != r || RingOf(r) != r {
		t.Fatalf("ring not found")
	}
	if RingOf(Nop) != nil {
		t.Fatalf("Nop has no ring")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context must yield Nop")
	}
	r := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	ctx, outer := Start(ctx, ScopeDriver, "outer")
	_, inner := Start(ctx, ScopePass, "inner")
	inner.End("")
	outer.End("")

	found, ok := Ring(NewMultiTracer(LevelDebug, Nop, r))
	if !ok || found != r {
		t.Fatalf("Ring did not find the ring tracer")
	}
	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events, got %d", len(snap))
	}
	if snap[1].ParentID != outer.ID() || snap[1].Depth != 1 {
		t.Fatalf("inner span not parented: %+v", snap[1])
	}
}

func TestDisabledSpanIsSafe(t *testing.T) {
	s := Begin(Nop, ScopeDriver, "x", 0)
	s.WithExtra("k", "v").Point("p", "")
	if d := s.End(""); d != 0 {
		t.Fatalf("disabled span reported duration %v", d)
	}
	var nilSpan *Span
	nilSpan.Child(ScopeNode, "y").End("")
	StartHeartbeat(Nop, 0).Stop()
}
