package fileops

import "testing"

// TestParsePathRange covers S8 from the spec's testable scenarios.
func TestParsePathRange(t *testing.T) {
	cases := []struct {
		arg                string
		wantPath           string
		wantStart, wantEnd int
		wantRange          bool
	}{
		{"/f:2-4", "/f", 2, 4, true},
		{"/f:5-", "/f", 5, 0, true},
		{"/tmp/http://x/y.txt", "/tmp/http://x/y.txt", 0, 0, false},
		{"/tmp/http://x/y.txt:10-20", "/tmp/http://x/y.txt", 10, 20, true},
		{"/plain/path", "/plain/path", 0, 0, false},
		{"/f:7", "/f", 7, 7, true},
	}
	for _, c := range cases {
		path, start, end, hasRange := ParsePathRange(c.arg)
		if path != c.wantPath || start != c.wantStart || end != c.wantEnd || hasRange != c.wantRange {
			t.Errorf("ParsePathRange(%q) = (%q, %d, %d, %v), want (%q, %d, %d, %v)",
				c.arg, path, start, end, hasRange, c.wantPath, c.wantStart, c.wantEnd, c.wantRange)
		}
	}
}
