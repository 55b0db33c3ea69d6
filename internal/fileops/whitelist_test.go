package fileops

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestWhitelistCoalescesOverlappingRanges(t *testing.T) {
	w := NewWhitelist()
	path := writeTempFile(t, "1\n2\n3\n4\n5\n")
	hash, total, err := hashFile(path)
	if err != nil {
		t.Fatalf("hashFile: %v", err)
	}

	w.RecordRead(path, 1, 2, total, hash)
	w.RecordRead(path, 2, 3, total, hash)
	w.RecordRead(path, 4, 5, total, hash)

	entry, ok := w.Entry(path)
	if !ok {
		t.Fatal("expected entry")
	}
	// 1-2 and 2-3 overlap; 4-5 starts right after line 3, so it is
	// adjacent and merges as well.
	if len(entry.ReadRanges) != 1 {
		t.Fatalf("ranges = %+v, want 1 coalesced range", entry.ReadRanges)
	}
	if entry.ReadRanges[0] != (LineRange{1, 5}) {
		t.Errorf("ranges[0] = %+v, want {1,5}", entry.ReadRanges[0])
	}
	if entry.CoveredLines() != 5 {
		t.Errorf("covered lines = %d, want 5", entry.CoveredLines())
	}
}

func TestWhitelistCanOverwriteRequiresCoverage(t *testing.T) {
	w := NewWhitelist()
	path := writeTempFile(t, "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n")
	hash, total, _ := hashFile(path)

	w.RecordRead(path, 1, 5, total, hash)
	if w.CanOverwrite(path) {
		t.Error("50% coverage should not permit overwrite")
	}

	w.RecordRead(path, 1, total, total, hash)
	if !w.CanOverwrite(path) {
		t.Error("full coverage should permit overwrite")
	}
}

func TestWhitelistInvalidatesOnHashChange(t *testing.T) {
	w := NewWhitelist()
	path := writeTempFile(t, "a\nb\nc\n")
	hash, total, _ := hashFile(path)
	w.RecordRead(path, 1, total, total, hash)
	if !w.CanOverwrite(path) {
		t.Fatal("expected overwrite to be allowed after full read")
	}

	if err := os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if w.CanOverwrite(path) {
		t.Error("changed file content should invalidate prior read coverage")
	}
}

func TestWhitelistRecordWriteGrantsFullCoverage(t *testing.T) {
	w := NewWhitelist()
	path := writeTempFile(t, "x\ny\n")
	hash, total, _ := hashFile(path)
	w.RecordWrite(path, total, hash)
	if !w.CanOverwrite(path) {
		t.Error("a freshly written file should be immediately overwritable")
	}
}

func TestWhitelistUnreadRanges(t *testing.T) {
	e := WhitelistEntry{TotalLines: 10, ReadRanges: []LineRange{{2, 4}, {7, 7}}}
	unread := e.UnreadRanges()
	want := []LineRange{{1, 1}, {5, 6}, {8, 10}}
	if len(unread) != len(want) {
		t.Fatalf("unread = %+v, want %+v", unread, want)
	}
	for i := range want {
		if unread[i] != want[i] {
			t.Errorf("unread[%d] = %+v, want %+v", i, unread[i], want[i])
		}
	}
}
