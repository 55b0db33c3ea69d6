// Package repocontext produces the workspace-structure summary Initialize
// reports: a depth-and-count-bounded breadth-first walk yielding a capped
// file listing, deliberately simpler than a learned relevance ranking —
// there's no bundled vocabulary/token model to rank paths with here, so a
// bounded walk stands in for one.
package repocontext

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MaxEntries bounds how many paths Summarize will ever visit, mirroring
// the original's MAX_ENTRIES_CHECK safety valve against huge trees.
const MaxEntries = 100_000

// MaxDepth is the default BFS depth limit.
const MaxDepth = 3

// MaxListed caps how many paths actually appear in the rendered summary.
const MaxListed = 200

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, ".venv": true, "__pycache__": true,
	"vendor": true, ".cache": true,
}

// Summarize walks root breadth-first up to MaxDepth, returning at most
// MaxListed relative paths in walk order: each directory's entries are
// listed by name with files and directories interleaved, and directories
// carry a trailing "/".
func Summarize(root string) []string {
	type queued struct {
		path  string
		depth int
	}
	queue := []queued{{root, 0}}
	var listed []string
	checked := 0

	for len(queue) > 0 && checked < MaxEntries && len(listed) < MaxListed {
		cur := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(cur.path)
		if err != nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, e := range entries {
			checked++
			if checked >= MaxEntries || len(listed) >= MaxListed {
				break
			}
			name := e.Name()
			full := filepath.Join(cur.path, name)
			rel, err := filepath.Rel(root, full)
			if err != nil {
				rel = full
			}

			if e.IsDir() {
				if skipDirs[name] {
					continue
				}
				listed = append(listed, rel+"/")
				if cur.depth < MaxDepth {
					queue = append(queue, queued{full, cur.depth + 1})
				}
				continue
			}
			listed = append(listed, rel)
		}
	}
	return listed
}

// Format renders Summarize's output as the textual block Initialize
// appends.
func Format(root string) string {
	paths := Summarize(root)
	var b strings.Builder
	b.WriteString("Workspace structure (")
	b.WriteString(root)
	b.WriteString("):\n")
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}
