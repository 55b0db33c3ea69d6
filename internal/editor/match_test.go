package editor

import "testing"

func TestMatchExactFindsContiguousSpan(t *testing.T) {
	content := []string{"a", "b", "c", "d", "e"}
	spans := MatchExact(content, 0, []string{"b", "c"})
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0] != (Span{1, 3}) {
		t.Errorf("span = %+v, want {1,3}", spans[0])
	}
}

func TestMatchExactNoMatch(t *testing.T) {
	content := []string{"a", "b", "c"}
	if spans := MatchExact(content, 0, []string{"x"}); len(spans) != 0 {
		t.Errorf("got %d spans, want 0", len(spans))
	}
}

func TestMatchExactRespectsOffset(t *testing.T) {
	content := []string{"x", "x", "y"}
	spans := MatchExact(content, 1, []string{"x"})
	if len(spans) != 1 || spans[0] != (Span{1, 2}) {
		t.Fatalf("offset should exclude content[0] and match only content[1], got spans %+v", spans)
	}
}

func TestMatchWithToleranceIndentation(t *testing.T) {
	content := []string{"def hello():", "    print('hi')"}
	search := []string{"def hello():", "  print('hi')"} // fewer leading spaces
	matches := MatchWithTolerance(content, 0, search, DefaultTolerances())
	if len(matches) == 0 {
		t.Fatal("expected a tolerant match")
	}
	found := false
	for _, hit := range matches[0].Tolerances {
		if hit.Count > 0 && hit.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning-severity tolerance hit, got %+v", matches[0].Tolerances)
	}
}

func TestMatchWithToleranceEmptyLinesFallback(t *testing.T) {
	content := []string{"a", "", "b", "c"}
	search := []string{"a", "b"} // matches only once empty lines are dropped
	if direct := MatchExact(content, 0, search); len(direct) != 0 {
		t.Fatalf("expected no exact match, got %+v", direct)
	}
	matches := MatchWithToleranceEmptyLines(content, 0, search, DefaultTolerances())
	if len(matches) == 0 {
		t.Fatal("expected a match after dropping empty lines")
	}
}

func TestSequenceMatchRatioIdentical(t *testing.T) {
	if r := SequenceMatchRatio("hello", "hello"); r != 1.0 {
		t.Errorf("ratio = %v, want 1.0", r)
	}
}

func TestSequenceMatchRatioDisjoint(t *testing.T) {
	if r := SequenceMatchRatio("aaaa", "bbbb"); r != 0.0 {
		t.Errorf("ratio = %v, want 0.0", r)
	}
}

func TestFindLeastEditDistanceSubstring(t *testing.T) {
	content := []string{"def foo():", "    return 1", "", "def bar():", "    return 2"}
	span, sim, ctx := FindLeastEditDistanceSubstring(content, 0, []string{"def foo()", "    return 1"})
	if span == nil {
		t.Fatal("expected a best-effort span")
	}
	if sim <= 0 {
		t.Errorf("similarity = %v, want > 0", sim)
	}
	if ctx == "" {
		t.Error("expected non-empty context")
	}
}
