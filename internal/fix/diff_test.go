package fix

import "testing"

func TestUnifiedDiff(t *testing.T) {
	before := []byte("a\nb\nc\n")
	after := []byte("a\nB\nc\n")
	got := UnifiedDiff("x.cpp", before, after, 1)
	want := "--- a/x.cpp\n+++ b/x.cpp\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n"
	if got != want {
		t.Fatalf("diff mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnifiedDiffEqual(t *testing.T) {
	if got := UnifiedDiff("x.cpp", []byte("same\n"), []byte("same\n"), 3); got != "" {
		t.Fatalf("expected empty diff, got %q", got)
	}
}

func TestUnifiedDiffSplitsDistantHunks(t *testing.T) {
	before := []byte("1\n2\n3\n4\n5\n6\n7\n8\n9\n")
	after := []byte("one\n2\n3\n4\n5\n6\n7\n8\nnine\n")
	got := UnifiedDiff("n.cpp", before, after, 1)
	want := "--- a/n.cpp\n+++ b/n.cpp\n" +
		"@@ -1,2 +1,2 @@\n-1\n+one\n 2\n" +
		"@@ -8,2 +8,2 @@\n 8\n-9\n+nine\n"
	if got != want {
		t.Fatalf("diff mismatch:\n%s\nwant:\n%s", got, want)
	}
}
