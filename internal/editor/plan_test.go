package editor

import "testing"

func TestBestMatchesPrefersLowerScore(t *testing.T) {
	content := []string{"def hello():", "    print('hi')"}
	blocks := []Block{{Search: []string{"def hello():", "    print('hi')"}, Replace: []string{"pass"}}}

	plans := EditFile(content, blocks)
	best, hasNegative := BestMatches(plans)
	if hasNegative {
		t.Fatal("exact match should not hit a negative (error) score")
	}
	if len(best) != 1 {
		t.Fatalf("got %d best plans, want 1", len(best))
	}
	if best[0].score() != 0 {
		t.Errorf("exact match score = %v, want 0", best[0].score())
	}
}

func TestBestMatchesToleranceRelaxationMonotonic(t *testing.T) {
	// Upgrading from exact to tolerant matching should never decrease the
	// candidate count, and looser tolerances should score worse (higher).
	content := []string{"  def hello():"}
	exact := MatchExact(content, 0, []string{"  def hello():"})
	tolerant := MatchWithTolerance(content, 0, []string{"def hello():"}, DefaultTolerances())
	if len(tolerant) < len(exact) {
		t.Errorf("tolerant matches (%d) should be >= exact matches (%d)", len(tolerant), len(exact))
	}
}

func TestPlanReplaceOrThrowSplicesAroundMatch(t *testing.T) {
	original := []string{"one", "two", "three"}
	blocks := []Block{{Search: []string{"two"}, Replace: []string{"TWO"}}}
	plans := EditFile(original, blocks)
	best, _ := BestMatches(plans)
	lines, _, err := best[0].ReplaceOrThrow(3)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	want := []string{"one", "TWO", "three"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestPlanReplaceOrThrowErrorsOnNoMatch(t *testing.T) {
	original := []string{"one", "two"}
	blocks := []Block{{Search: []string{"nonexistent"}, Replace: []string{"x"}}}
	plans := EditFile(original, blocks)
	best, _ := BestMatches(plans)
	_, _, err := best[0].ReplaceOrThrow(3)
	if err == nil {
		t.Fatal("expected an error for a block with no match")
	}
}
