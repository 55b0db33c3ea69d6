package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wcgw-run/wcgw-go/internal/contract"
	"github.com/wcgw-run/wcgw-go/internal/fileops"
	"github.com/wcgw-run/wcgw-go/internal/shellsession"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	reg := shellsession.NewRegistry(shellsession.SpawnOptions{}, testWaitBudgetForDispatch())
	files := fileops.NewService(nil)
	return New(reg, files, testWaitBudgetForDispatch(), nil)
}

func testWaitBudgetForDispatch() shellsession.WaitBudget {
	return shellsession.DefaultWaitBudget()
}

// TestInvokeRejectsBeforeInitialize covers the "Initialize must be called
// first" gate for every tool besides Initialize itself.
func TestInvokeRejectsBeforeInitialize(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Invoke(context.Background(), contract.ReadFilesCall{FilePaths: []string{"/tmp/x"}})
	if err == nil || !strings.Contains(err.Error(), "initialize") {
		t.Fatalf("err = %v, want an 'initialize tool not called yet' error", err)
	}
}

func TestFileWriteOrEditRoutesByPercentage(t *testing.T) {
	d := newTestDispatcher(t)
	d.mu.Lock()
	d.initialized = true
	d.policy = WCGWPolicy()
	d.mu.Unlock()

	dir := t.TempDir()
	path := filepath.Join(dir, "new.txt")

	out, err := d.Invoke(context.Background(), contract.FileWriteOrEditCall{
		FilePath:                  path,
		TextOrSearchReplaceBlocks: "hello\n",
		PercentageToChange:        100,
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !strings.Contains(out, "Success") {
		t.Errorf("out = %q", out)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "hello\n" {
		t.Errorf("content = %q", got)
	}
}

func TestFileWriteOrEditDeniedOutsideCodeWriterGlobs(t *testing.T) {
	d := newTestDispatcher(t)
	d.mu.Lock()
	d.initialized = true
	d.policy = CodeWriterPolicy(contract.CodeWriterConfig{AllowedGlobsWrite: []string{"*.go"}})
	d.mu.Unlock()

	dir := t.TempDir()
	path := filepath.Join(dir, "new.txt")

	out, err := d.Invoke(context.Background(), contract.FileWriteOrEditCall{
		FilePath:                  path,
		TextOrSearchReplaceBlocks: "hello\n",
		PercentageToChange:        100,
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !strings.Contains(out, "not allowed in current mode") {
		t.Errorf("out = %q", out)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("file should not have been written")
	}
}

func TestContextSaveReportsUnmatchedGlobs(t *testing.T) {
	d := newTestDispatcher(t)
	d.mu.Lock()
	d.initialized = true
	d.mu.Unlock()

	out, err := d.Invoke(context.Background(), contract.ContextSaveCall{
		TaskID:       "no-match-task",
		FilePatterns: []string{filepath.Join(t.TempDir(), "does-not-exist-*.go")},
		Description:  "nothing to see",
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !strings.Contains(out, "No files found") {
		t.Errorf("out = %q", out)
	}
}

func TestReadImageRejectsBeforeInitialize(t *testing.T) {
	d := newTestDispatcher(t)
	if _, err := d.ReadImage(contract.ReadImageCall{FilePath: "/tmp/x.png"}); err == nil {
		t.Fatal("expected error before Initialize")
	}
}

func TestReadImageDetectsMediaType(t *testing.T) {
	d := newTestDispatcher(t)
	d.mu.Lock()
	d.initialized = true
	d.mu.Unlock()

	path := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	img, err := d.ReadImage(contract.ReadImageCall{FilePath: path})
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if img.MediaType != "png" {
		t.Errorf("media type = %q, want png", img.MediaType)
	}
	if img.Base64Data == "" {
		t.Error("expected non-empty base64 payload")
	}
}
