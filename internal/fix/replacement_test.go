package fix

import (
	"errors"
	"testing"

	"cxxtweak/internal/source"
)

func TestReplacementsAddRejectsOverlap(t *testing.T) {
	tests := []struct {
		name    string
		first   Replacement
		second  Replacement
		wantErr error
	}{
		{"disjoint", Delete(source.Span{Start: 0, End: 3}, ""), Delete(source.Span{Start: 3, End: 5}, ""), nil},
		{"overlap", Delete(source.Span{Start: 0, End: 3}, ""), Delete(source.Span{Start: 2, End: 5}, ""), ErrOverlap},
		{"insert at deletion start", Delete(source.Span{Start: 4, End: 7}, ""), Insert(0, 4, "x"), nil},
		{"insert at deletion end", Delete(source.Span{Start: 4, End: 7}, ""), Insert(0, 7, "x"), nil},
		{"insert inside deletion", Delete(source.Span{Start: 4, End: 7}, ""), Insert(0, 5, "x"), ErrOverlap},
		{"two inserts", Insert(0, 2, "a"), Insert(0, 2, "b"), nil},
		{"same insert twice", Insert(0, 2, "a"), Insert(0, 2, "a"), ErrDuplicate},
		{"other file", Insert(0, 2, "a"), Insert(1, 9, "b"), ErrMixedFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rs Replacements
			if err := rs.Add(tt.first); err != nil {
				t.Fatalf("first add: %v", err)
			}
			err := rs.Add(tt.second)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if rs.Len() != 2 {
					t.Fatalf("expected 2 edits, got %d", rs.Len())
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if rs.Len() != 1 {
				t.Fatalf("rejected edit must not be stored, have %d", rs.Len())
			}
		})
	}
}

func TestReplacementsApply(t *testing.T) {
	content := []byte("void g() { a::b::f(); }\n")
	var rs Replacements
	if err := rs.Add(Delete(source.Span{Start: 11, End: 17}, "a::b::")); err != nil {
		t.Fatal(err)
	}
	if err := rs.Add(Insert(0, 0, "using a::b::f;\n\n")); err != nil {
		t.Fatal(err)
	}
	got, err := rs.Apply(content)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := "using a::b::f;\n\nvoid g() { f(); }\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	items := rs.Items()
	if !items[0].IsInsert() || items[1].Offset != 11 {
		t.Fatalf("unexpected order: %v", items)
	}
}

func TestReplacementsApplyInsertBeforeDeletion(t *testing.T) {
	content := []byte("a::T x;\n")
	var rs Replacements
	if err := rs.Add(Delete(source.Span{Start: 0, End: 3}, "a::")); err != nil {
		t.Fatal(err)
	}
	if err := rs.Add(Insert(0, 0, "using a::T;\n\n")); err != nil {
		t.Fatal(err)
	}
	got, err := rs.Apply(content)
	if err != nil {
		t.Fatal(err)
	}
	if want := "using a::T;\n\nT x;\n"; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReplacementsApplyErrors(t *testing.T) {
	var stale Replacements
	if err := stale.Add(Delete(source.Span{Start: 0, End: 3}, "b::")); err != nil {
		t.Fatal(err)
	}
	if _, err := stale.Apply([]byte("a::f();")); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}

	var long Replacements
	if err := long.Add(Delete(source.Span{Start: 5, End: 30}, "")); err != nil {
		t.Fatal(err)
	}
	if _, err := long.Apply([]byte("short")); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestReplacementsShift(t *testing.T) {
	var rs Replacements
	_ = rs.Add(Insert(0, 0, "1234"))
	_ = rs.Add(Delete(source.Span{Start: 10, End: 13}, ""))
	cases := map[uint32]uint32{
		0:  4,
		5:  9,
		10: 14,
		11: 14,
		13: 14,
		20: 21,
	}
	for in, want := range cases {
		if got := rs.Shift(in); got != want {
			t.Errorf("Shift(%d) = %d, want %d", in, got, want)
		}
	}
}
