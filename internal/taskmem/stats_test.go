package taskmem

import "testing"

func TestStatsStoreRecordsAndReads(t *testing.T) {
	withTempDataDir(t)
	workspace := "/tmp/my-workspace"

	store, err := OpenStatsStore(workspace)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.RecordCommand(workspace, "thread-1"); err != nil {
		t.Fatalf("record command: %v", err)
	}
	if err := store.RecordCommand(workspace, "thread-1"); err != nil {
		t.Fatalf("record command: %v", err)
	}
	if err := store.RecordEdit(workspace); err != nil {
		t.Fatalf("record edit: %v", err)
	}
	if err := store.RecordWrite(workspace); err != nil {
		t.Fatalf("record write: %v", err)
	}

	stats, err := store.Get(workspace)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stats.CommandsRun != 2 {
		t.Errorf("CommandsRun = %d, want 2", stats.CommandsRun)
	}
	if stats.FilesEdited != 1 {
		t.Errorf("FilesEdited = %d, want 1", stats.FilesEdited)
	}
	if stats.FilesWritten != 1 {
		t.Errorf("FilesWritten = %d, want 1", stats.FilesWritten)
	}
}

func TestStatsStoreReopenIsIdempotent(t *testing.T) {
	withTempDataDir(t)
	workspace := "/tmp/reopened-workspace"

	first, err := OpenStatsStore(workspace)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first.RecordCommand(workspace, "t")
	first.Close()

	second, err := OpenStatsStore(workspace)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	stats, err := second.Get(workspace)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stats.CommandsRun != 1 {
		t.Errorf("CommandsRun = %d, want 1 (should survive reopen)", stats.CommandsRun)
	}
}
