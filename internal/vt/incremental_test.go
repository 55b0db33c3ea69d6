package vt

import (
	"strings"
	"testing"
)

// TestRenderSplitInvariant covers the §8 invariant: for any split b = b1 ||
// b2, the cumulative render of b equals the render obtained by feeding b1
// then b2 to the same screen.
func TestRenderSplitInvariant(t *testing.T) {
	full := []byte("line one\r\nline two\r\nline three\r\n")
	whole := Render(full)

	s := NewScreen()
	defer s.Close()
	mid := len(full) / 2
	s.Write(full[:mid])
	s.Write(full[mid:])
	split := s.Render()

	if strings.Join(whole, "\n") != strings.Join(split, "\n") {
		t.Errorf("split render = %v, whole render = %v", split, whole)
	}
}

func TestRenderDropsTrailingBlankLines(t *testing.T) {
	lines := Render([]byte("hello\r\n\r\n\r\n"))
	if len(lines) != 1 || lines[0] != "hello" {
		t.Errorf("lines = %v, want [\"hello\"]", lines)
	}
}

func TestIncrementalFirstTick(t *testing.T) {
	lines := Incremental([]byte("hello\r\n"), "")
	if len(lines) != 1 || lines[0] != "hello" {
		t.Errorf("lines = %v", lines)
	}
}

func TestIncrementalDropsRepeatedLastLine(t *testing.T) {
	// First tick sees a partial line "abc" (no newline yet — still "live").
	first := Incremental([]byte("abc"), "")
	if len(first) != 1 || first[0] != "abc" {
		t.Fatalf("first = %v", first)
	}
	prevRendered := JoinRstrip(Render([]byte("abc")))

	// Second tick: the same "abc" line re-renders unchanged, plus a new
	// line. The repeated "abc" should not reappear as new content.
	second := Incremental([]byte("abc\r\ndef\r\n"), prevRendered)
	if len(second) != 1 || second[0] != "def" {
		t.Errorf("second = %v, want [\"def\"]", second)
	}
}

func TestIncrementalMonotone(t *testing.T) {
	// Lines returned by one tick should never be retracted by a later
	// tick over the same cumulative prefix.
	cumulative := []byte("")
	prev := ""
	var seen []string
	for _, chunk := range []string{"first\r\n", "second\r\n", "third\r\n"} {
		cumulative = append(cumulative, []byte(chunk)...)
		newLines := Incremental(cumulative, prev)
		seen = append(seen, newLines...)
		prev = JoinRstrip(Render(cumulative))
	}
	want := []string{"first", "second", "third"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestIncrementalAnsiEscapesDontDesyncOffset(t *testing.T) {
	// prevRendered's byte length has nothing to do with the raw byte
	// offset in cumulative once escape sequences are involved — "green"
	// renders to 5 bytes but the raw chunk that produced it is longer.
	first := []byte("\x1b[32mgreen\x1b[0m\r\n")
	prevRendered := JoinRstrip(Render(first))
	if prevRendered != "green" {
		t.Fatalf("prevRendered = %q, want %q", prevRendered, "green")
	}

	cumulative := append(append([]byte{}, first...), []byte("next\r\n")...)
	second := Incremental(cumulative, prevRendered)
	if len(second) != 1 || second[0] != "next" {
		t.Errorf("second = %v, want [\"next\"]", second)
	}
}

func TestJoinRstripTrimsTrailingWhitespace(t *testing.T) {
	got := JoinRstrip([]string{"a  ", "b\t"})
	if got != "a\nb" {
		t.Errorf("got %q, want %q", got, "a\nb")
	}
}
