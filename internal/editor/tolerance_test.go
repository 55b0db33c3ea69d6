package editor

import "testing"

func TestDefaultTolerancesOrderAndWeights(t *testing.T) {
	tols := DefaultTolerances()
	if len(tols) != 3 {
		t.Fatalf("got %d tolerances, want 3", len(tols))
	}
	if tols[0].Severity != SeveritySilent || tols[0].ScoreMultiplier != 1 {
		t.Errorf("tolerance 0 = %+v", tols[0])
	}
	if tols[1].Severity != SeverityWarning || tols[1].ScoreMultiplier != 10 {
		t.Errorf("tolerance 1 = %+v", tols[1])
	}
	if tols[2].Severity != SeverityWarning || tols[2].ScoreMultiplier != 50 {
		t.Errorf("tolerance 2 = %+v", tols[2])
	}
	// Strictly increasing weight as tolerance loosens.
	if !(tols[0].ScoreMultiplier < tols[1].ScoreMultiplier && tols[1].ScoreMultiplier < tols[2].ScoreMultiplier) {
		t.Error("expected strictly increasing score multipliers")
	}
}

func TestRemoveLeadingTrailingEmptyLines(t *testing.T) {
	in := []string{"", "  ", "a", "b", "", ""}
	out := removeLeadingTrailingEmptyLines(in)
	want := []string{"a", "b"}
	if len(out) != len(want) {
		t.Fatalf("got %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestRemoveLeadingTrailingEmptyLinesAllBlank(t *testing.T) {
	if out := removeLeadingTrailingEmptyLines([]string{"", " ", ""}); out != nil {
		t.Errorf("got %v, want nil", out)
	}
}

func TestLineProcessMaxSpaceTolerance(t *testing.T) {
	if got := lineProcessMaxSpaceTolerance("  a  b  "); got != "ab" {
		t.Errorf("got %q, want %q", got, "ab")
	}
}
