package fileops

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWatcherInvalidatesOnOutOfBandWrite covers the out-of-band
// invalidation path: a write to a watched file through any process (not
// just through Service) must clear its whitelist coverage.
func TestWatcherInvalidatesOnOutOfBandWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("uses a real fsnotify watch")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	wl := NewWhitelist()
	hash, lines, err := hashFile(path)
	if err != nil {
		t.Fatalf("hash file: %v", err)
	}
	wl.RecordRead(path, 1, lines, lines, hash)
	if !wl.CanOverwrite(path) {
		t.Fatal("expected full coverage right after RecordRead")
	}

	watcher, err := NewWatcher(wl)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := os.WriteFile(path, []byte("changed out of band\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !wl.CanOverwrite(path) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("expected whitelist coverage to be invalidated after an out-of-band write")
}
