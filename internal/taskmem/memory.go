// Package taskmem implements resumable task memory:
// serializing a task's description, relevant files, and registry state to
// a plain-text file keyed by task id, and loading it back on resume.
package taskmem

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/shlex"
)

// shellQuote quotes s for safe round-tripping through shlex.Split.
// google/shlex provides a lexer but no quoter, so this is a small
// hand-rolled counterpart kept local to this package.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r == '_' || r == '-' || r == '.' || r == '/' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// DataDir returns $XDG_DATA_HOME/wcgw, or ~/.local/share/wcgw if unset.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "wcgw")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "wcgw")
}

// ContextSave is the input to Format/Save.
type ContextSave struct {
	TaskID          string
	Description     string
	ProjectRootPath string
	RelevantGlobs   []string
}

// Format assembles the memory file's text body: an optional "# PROJECT
// ROOT = <shlex-quoted path>" header, the description, the glob list, the
// resolved relevant-file contents, and finally the serialized registry
// state.
func Format(task ContextSave, relevantFiles, serializedState string) string {
	var b strings.Builder
	if task.ProjectRootPath != "" {
		fmt.Fprintf(&b, "# PROJECT ROOT = %s\n", shellQuote(task.ProjectRootPath))
	}
	b.WriteString(task.Description)

	b.WriteString("\n\n# Relevant file paths\n")
	quoted := make([]string, len(task.RelevantGlobs))
	for i, g := range task.RelevantGlobs {
		quoted[i] = shellQuote(g)
	}
	b.WriteString(strings.Join(quoted, ", "))

	b.WriteString("\n\n# Relevant Files:\n")
	b.WriteString(relevantFiles)

	if serializedState != "" {
		b.WriteString("\n\n# Registry State:\n")
		b.WriteString(serializedState)
	}
	return b.String()
}

// Save atomically writes the formatted memory body to
// <DataDir>/memory/<task_id>.txt and returns that path.
func Save(task ContextSave, relevantFiles, serializedState string) (string, error) {
	if task.TaskID == "" {
		return "", fmt.Errorf("task id can not be empty")
	}
	memoryDir := filepath.Join(DataDir(), "memory")
	if err := os.MkdirAll(memoryDir, 0o755); err != nil {
		return "", fmt.Errorf("create memory dir: %w", err)
	}

	path := filepath.Join(memoryDir, task.TaskID+".txt")
	tmp := path + ".tmp"
	body := Format(task, relevantFiles, serializedState)
	if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write memory file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize memory file: %w", err)
	}
	return path, nil
}

var projectRootLine = regexp.MustCompile(`(?m)^# PROJECT ROOT = \s*(.*?)\s*$`)

// TokenCounter is the subset of the external encoder Load needs to
// enforce a token budget on the returned memory text.
type TokenCounter interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}

// Load reads back a saved memory file, truncating the body to maxTokens
// (if positive) via enc and appending a "(... truncated)" sentinel, and
// extracts the project root path from its header line if present.
func Load(taskID string, maxTokens int, enc TokenCounter) (projectRoot, text string, err error) {
	path := filepath.Join(DataDir(), "memory", taskID+".txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("load memory %q: %w", taskID, err)
	}
	text = string(raw)

	if maxTokens > 0 && enc != nil {
		if enc.Count(text) > maxTokens {
			budget := maxTokens - 10
			if budget < 0 {
				budget = 0
			}
			text = enc.Truncate(text, budget) + "\n(... truncated)"
		}
	}

	if m := projectRootLine.FindStringSubmatch(text); m != nil {
		if parts, err := shlex.Split(m[1]); err == nil && len(parts) == 1 {
			projectRoot = parts[0]
		}
	}
	return projectRoot, text, nil
}
