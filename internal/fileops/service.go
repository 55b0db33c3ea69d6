package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcgw-run/wcgw-go/internal/editor"
)

// sourceExtensions is the fixed source-code extension set that picks the
// coding (vs. noncoding) token budget for ReadFiles.
var sourceExtensions = map[string]bool{
	"py": true, "c": true, "cpp": true, "h": true, "hpp": true, "rs": true,
	"go": true, "ts": true, "tsx": true, "js": true, "jsx": true, "java": true,
	"rb": true, "php": true, "sh": true, "sql": true, "json": true,
	"yaml": true, "yml": true, "toml": true, "md": true,
}

// Budgets are the two token budgets ReadFiles splits between source and
// non-source files. There is no "unlimited" sentinel here —
// callers wanting no limit should pass a sufficiently large value.
type Budgets struct {
	Coding    int
	NonCoding int
}

// TokenCounter counts and truncates text the same way the external
// encoder the dispatcher holds does; the file-ops service takes it as a
// dependency rather than owning a tokenizer.
type TokenCounter interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}

// Service is the file read/write/edit operations, layered over a
// Whitelist.
type Service struct {
	Whitelist   *Whitelist
	Enc         TokenCounter
	Watcher     *Watcher      // optional; nil disables out-of-band invalidation
	SyntaxCheck SyntaxChecker // optional; nil disables syntax-warning advisories
}

// NewService creates a Service with a fresh Whitelist and no watcher.
func NewService(enc TokenCounter) *Service {
	return &Service{Whitelist: NewWhitelist(), Enc: enc}
}

// NewWatchingService creates a Service whose Whitelist entries are
// invalidated when the underlying files change on disk out-of-band.
func NewWatchingService(enc TokenCounter) (*Service, error) {
	s := NewService(enc)
	w, err := NewWatcher(s.Whitelist)
	if err != nil {
		return nil, err
	}
	s.Watcher = w
	return s, nil
}

// ReadFiles reads each of paths (each optionally carrying a ":start-end"
// line-range suffix, see ParsePathRange), recording read coverage for
// each, and concatenates the results labeled by path. Stops and notes
// the remaining paths once the relevant budget (coding or non-coding,
// by extension) is exhausted.
func (s *Service) ReadFiles(paths []string, budgets Budgets) string {
	var out strings.Builder
	for i, arg := range paths {
		path, start, end, hasRange := ParsePathRange(arg)
		content, truncated, tokens, err := s.readOne(path, start, end, hasRange, budgetFor(budgets, path))
		if err != nil {
			fmt.Fprintf(&out, "\n%s: %s\n", arg, err)
			continue
		}

		fmt.Fprintf(&out, "\n``` %s\n%s\n", arg, content)
		budgets = spend(budgets, path, tokens)

		if truncated || exhausted(budgets, path) {
			rest := paths[i+1:]
			if len(rest) > 0 {
				fmt.Fprintf(&out, "\nNot reading the rest of the files: %s due to token limit, please call again", strings.Join(rest, ", "))
			}
			break
		}
		out.WriteString("```")
	}
	return out.String()
}

func budgetFor(b Budgets, path string) int {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if sourceExtensions[ext] {
		return b.Coding
	}
	return b.NonCoding
}

func spend(b Budgets, path string, tokens int) Budgets {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if sourceExtensions[ext] {
		b.Coding -= tokens
	} else {
		b.NonCoding -= tokens
	}
	return b
}

func exhausted(b Budgets, path string) bool {
	return budgetFor(b, path) <= 0
}

func (s *Service) readOne(path string, start, end int, hasRange bool, maxTokens int) (content string, truncated bool, tokens int, err error) {
	if !filepath.IsAbs(path) {
		return "", false, 0, fmt.Errorf("failure: file_path should be absolute path")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false, 0, fmt.Errorf("error: file %s does not exist", path)
	}
	lines := strings.Split(string(raw), "\n")
	total := len(lines)

	hash, _, _ := hashFile(path)

	rStart, rEnd := 1, total
	if hasRange {
		if start > 0 {
			rStart = start
		}
		if end > 0 {
			rEnd = end
		}
		if rEnd > total {
			rEnd = total
		}
		if rStart < 1 {
			rStart = 1
		}
	}
	if rStart > rEnd {
		rStart, rEnd = 1, total
	}

	s.Whitelist.RecordRead(path, rStart, rEnd, total, hash)
	if s.Watcher != nil {
		s.Watcher.Add(path)
	}

	selected := strings.Join(lines[rStart-1:rEnd], "\n")

	if maxTokens > 0 && s.Enc != nil {
		tokens = s.Enc.Count(selected)
		if tokens > maxTokens {
			truncatedContent := s.Enc.Truncate(selected, maxTokens)
			return truncatedContent + "\n(...truncated)\n", true, tokens, nil
		}
	}
	return selected, false, tokens, nil
}

// WriteIfEmpty writes content to path, refusing to clobber an existing
// non-empty file unless the whitelist says it's safe to overwrite. Creates
// parent directories. Records full coverage for the new content on
// success.
func (s *Service) WriteIfEmpty(path, content string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("failure: file_path should be absolute path")
	}

	if existing, err := os.ReadFile(path); err == nil && strings.TrimSpace(string(existing)) != "" {
		if !s.Whitelist.CanOverwrite(path) {
			return "", fmt.Errorf("error: can't write to existing file %s, use the edit operation instead\nHere's the existing content:\n```\n%s\n```", path, existing)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}

	total := len(strings.Split(content, "\n"))
	hash, _, _ := hashFile(path)
	s.Whitelist.RecordWrite(path, total, hash)
	if s.Watcher != nil {
		s.Watcher.Add(path)
	}

	if warning := s.checkSyntax(path, content); warning != "" {
		return "Success. " + warning, nil
	}
	return "Success", nil
}

// checkSyntax runs the optional syntax checker over content and renders
// an advisory, or "" if no checker is registered or it reported nothing.
func (s *Service) checkSyntax(path, content string) string {
	if s.SyntaxCheck == nil {
		return ""
	}
	report, ok := s.SyntaxCheck.Check(extOf(path), content)
	if !ok || (report.Description == "" && len(report.Errors) == 0) {
		return ""
	}
	return syntaxWarning(report, strings.Split(content, "\n"), 10)
}

// Edit applies the SEARCH/REPLACE blocks in blocksText to path, requiring
// the file to exist and the whitelist to permit overwrite (current hash
// matches, coverage above threshold). Records full coverage for the
// edited content on success.
func (s *Service) Edit(path, blocksText string) (comments string, err error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("failure: file_path should be absolute path")
	}
	if !s.Whitelist.CanOverwrite(path) {
		return "", fmt.Errorf("error: file %s hasn't been sufficiently read, or has changed since — read it (or re-read it) before editing", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error: file %s does not exist", path)
	}

	edited, warnings, err := editor.Apply(string(raw), strings.TrimSpace(blocksText))
	if err != nil {
		// Retry once with every literal \" turned into "; if that fails
		// too, report the original error.
		unquoted := strings.ReplaceAll(blocksText, `\"`, `"`)
		retried, retryWarnings, retryErr := editor.Apply(string(raw), strings.TrimSpace(unquoted))
		if retryErr != nil {
			return "", err
		}
		edited, warnings = retried, retryWarnings
	}

	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		return "", err
	}

	total := len(strings.Split(edited, "\n"))
	hash, _, _ := hashFile(path)
	s.Whitelist.RecordWrite(path, total, hash)
	if s.Watcher != nil {
		s.Watcher.Add(path)
	}

	if syntaxMsg := s.checkSyntax(path, edited); syntaxMsg != "" {
		warnings = append(warnings, syntaxMsg)
	}

	if len(warnings) == 0 {
		return "Edited successfully", nil
	}
	return "Edited successfully. However, following warnings were generated while matching search blocks.\n" + strings.Join(warnings, "\n"), nil
}
