package editor

import "testing"

func TestParseBlocksSingle(t *testing.T) {
	text := "<<<<<<< SEARCH\nold line\n=======\nnew line\n>>>>>>> REPLACE\n"
	blocks, err := ParseBlocks(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if len(blocks[0].Search) != 1 || blocks[0].Search[0] != "old line" {
		t.Errorf("search = %v", blocks[0].Search)
	}
	if len(blocks[0].Replace) != 1 || blocks[0].Replace[0] != "new line" {
		t.Errorf("replace = %v", blocks[0].Replace)
	}
}

func TestParseBlocksMultiple(t *testing.T) {
	text := "<<<<<<< SEARCH\na\n=======\nb\n>>>>>>> REPLACE\n<<<<<<< SEARCH\nc\n=======\nd\n>>>>>>> REPLACE\n"
	blocks, err := ParseBlocks(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
}

func TestParseBlocksLongerMarkers(t *testing.T) {
	text := "<<<<<<<<< SEARCH\na\n========\nb\n>>>>>>>>> REPLACE\n"
	blocks, err := ParseBlocks(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
}

func TestParseBlocksEmptySearchIsSyntaxError(t *testing.T) {
	text := "<<<<<<< SEARCH\n=======\nnew\n>>>>>>> REPLACE\n"
	if _, err := ParseBlocks(text); err == nil {
		t.Fatal("expected syntax error for empty SEARCH block")
	}
}

func TestParseBlocksNoBlocksIsSyntaxError(t *testing.T) {
	if _, err := ParseBlocks("just some text\nwith no markers\n"); err == nil {
		t.Fatal("expected syntax error when no blocks present")
	}
}

func TestParseBlocksStrayMarkerInsideSearch(t *testing.T) {
	text := "<<<<<<< SEARCH\na\n>>>>>>> REPLACE\n=======\nb\n>>>>>>> REPLACE\n"
	_, err := ParseBlocks(text)
	if err == nil {
		t.Fatal("expected syntax error for stray marker inside SEARCH block")
	}
	serr, ok := err.(*ErrSyntax)
	if !ok {
		t.Fatalf("expected *ErrSyntax, got %T", err)
	}
	if serr.Error() == "" {
		t.Error("expected non-empty error message")
	}
}

func TestParseBlocksUnclosedSearch(t *testing.T) {
	text := "<<<<<<< SEARCH\na\nb\n"
	if _, err := ParseBlocks(text); err == nil {
		t.Fatal("expected syntax error for unclosed SEARCH block")
	}
}

func TestParseBlocksStrayDividerOutsideBlock(t *testing.T) {
	text := "=======\n<<<<<<< SEARCH\na\n=======\nb\n>>>>>>> REPLACE\n"
	if _, err := ParseBlocks(text); err == nil {
		t.Fatal("expected syntax error for stray divider outside any block")
	}
}
