package rag

import (
	"strings"
	"testing"
)

func TestQuestionTerms(t *testing.T) {
	got := questionTerms("What is the Mitochondria? Where, in the cell, is the mitochondria found?")
	want := []string{"mitochondria", "cell", "found"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("questionTerms = %v, want %v", got, want)
	}
}

func TestFallback_picksBestBlocks(t *testing.T) {
	blocks := []string{
		"Rivers flow to the sea.",
		"The cell membrane surrounds the cell.",
		"The mitochondria is the powerhouse of the cell.",
		"Mitochondria have their own DNA.",
	}
	got := Fallback("Which powerhouse lives in the cell? mitochondria", blocks)
	if !strings.HasPrefix(got, fallbackPrefix) {
		t.Fatalf("missing prefix: %q", got)
	}
	body := strings.TrimPrefix(got, fallbackPrefix)
	parts := strings.Split(body, "\n\n")
	if len(parts) != 3 {
		t.Fatalf("got %d blocks, want 3: %q", len(parts), body)
	}
	if parts[0] != blocks[2] {
		t.Errorf("best block = %q, want %q", parts[0], blocks[2])
	}
	if parts[1] != blocks[1] || parts[2] != blocks[3] {
		t.Errorf("ties must keep context order: %q", parts[1:])
	}
	if strings.Contains(got, "Rivers") {
		t.Error("zero-score block must be left out")
	}
}

func TestFallback_truncatesSnippets(t *testing.T) {
	long := "photosynthesis " + strings.Repeat("x", 800)
	got := Fallback("photosynthesis", []string{long})
	body := strings.TrimPrefix(got, fallbackPrefix)
	if len([]rune(body)) != fallbackSnippet+3 || !strings.HasSuffix(body, "...") {
		t.Errorf("snippet length = %d", len([]rune(body)))
	}
}

func TestFallback_noMatchQuotesFirstTwoBlocks(t *testing.T) {
	blocks := []string{strings.Repeat("a", 1500), "second block", "third block"}
	got := Fallback("unrelated question words", blocks)
	if !strings.HasPrefix(got, lastResortPrefix) {
		t.Fatalf("missing prefix: %q", got[:40])
	}
	body := strings.TrimPrefix(got, lastResortPrefix)
	want := strings.Repeat("a", fallbackLastSnippet) + "...\n\nsecond block"
	if body != want {
		t.Errorf("body = %q...", body[len(body)-30:])
	}
}

func TestFallback_noContext(t *testing.T) {
	if got := Fallback("anything", nil); got != MsgNoAnswer {
		t.Errorf("got %q", got)
	}
	if got := Fallback("anything", []string{" ", ""}); got != MsgNoAnswer {
		t.Errorf("blank blocks: got %q", got)
	}
}

func TestBuildContext(t *testing.T) {
	got := BuildContext([]string{"alpha", "beta"})
	if got != "[Document 1]\nalpha\n\n[Document 2]\nbeta" {
		t.Errorf("BuildContext = %q", got)
	}
	if BuildContext(nil) != "" {
		t.Error("empty context should be empty")
	}
}
