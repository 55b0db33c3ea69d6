package editor

import "testing"

// TestApplyExactMatch covers S4: an exact SEARCH match is replaced in place.
func TestApplyExactMatch(t *testing.T) {
	content := "def hello():\n    print('hello')\n"
	blocks := "<<<<<<< SEARCH\ndef hello():\n    print('hello')\n=======\ndef hello():\n    print('hello world')\n>>>>>>> REPLACE\n"

	edited, warnings, err := Apply(content, blocks)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	want := "def hello():\n    print('hello world')\n"
	if edited != want {
		t.Errorf("edited = %q, want %q", edited, want)
	}
}

// TestApplyIndentationWarning covers S5: a search block missing
// indentation still matches, with a "without considering indentation"
// warning.
func TestApplyIndentationWarning(t *testing.T) {
	content := "def hello():\n    print('hello')\n"
	blocks := "<<<<<<< SEARCH\ndef hello():\nprint('hello')\n=======\ndef hello():\n    print('hello world')\n>>>>>>> REPLACE\n"

	_, warnings, err := Apply(content, blocks)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	found := false
	for _, w := range warnings {
		if w == "Warning: matching without considering indentation (leading spaces)." {
			found = true
		}
	}
	if !found {
		t.Errorf("expected indentation warning, got %v", warnings)
	}
}

// TestApplyAmbiguousMatch covers S6: two identical bodies with no
// disambiguating context raise an ambiguity error naming the block.
func TestApplyAmbiguousMatch(t *testing.T) {
	content := "def f():\n    return 1\n\n# separator\n\ndef f():\n    return 1\n"
	blocks := "<<<<<<< SEARCH\ndef f():\n    return 1\n=======\ndef f():\n    return 2\n>>>>>>> REPLACE\n"

	_, _, err := Apply(content, blocks)
	if err == nil {
		t.Fatal("expected an ambiguity error")
	}
	if want := "def f():"; !contains(err.Error(), want) {
		t.Errorf("error %q should contain the conflicting block's text %q", err.Error(), want)
	}
}

func TestApplyNoMatchReturnsDidYouMean(t *testing.T) {
	content := "one\ntwo\nthree\n"
	blocks := "<<<<<<< SEARCH\nzzz not present\n=======\nreplacement\n>>>>>>> REPLACE\n"

	_, _, err := Apply(content, blocks)
	if err == nil {
		t.Fatal("expected a match error")
	}
}

// TestApplyRoundTrip covers the round-trip invariant: search == replace ==
// the matched content leaves the file byte-identical.
func TestApplyRoundTrip(t *testing.T) {
	content := "alpha\nbeta\ngamma\n"
	blocks := "<<<<<<< SEARCH\nbeta\n=======\nbeta\n>>>>>>> REPLACE\n"

	edited, _, err := Apply(content, blocks)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if edited != content {
		t.Errorf("edited = %q, want unchanged %q", edited, content)
	}
}

func TestApplyMultiBlockSequential(t *testing.T) {
	content := "one\ntwo\nthree\nfour\n"
	blocks := "<<<<<<< SEARCH\none\n=======\nONE\n>>>>>>> REPLACE\n<<<<<<< SEARCH\nthree\n=======\nTHREE\n>>>>>>> REPLACE\n"

	edited, _, err := Apply(content, blocks)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := "ONE\ntwo\nTHREE\nfour\n"
	if edited != want {
		t.Errorf("edited = %q, want %q", edited, want)
	}
}

func TestApplySyntaxErrorPropagatesAsErrSyntax(t *testing.T) {
	_, _, err := Apply("content\n", "not a valid block payload")
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if _, ok := err.(*ErrSyntax); !ok {
		t.Fatalf("expected *ErrSyntax, got %T", err)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
