package fileops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SyntaxError is one (line, col) position the checker flagged.
type SyntaxError struct {
	Line, Col int
}

// SyntaxReport is a syntax checker's verdict on one piece of text.
type SyntaxReport struct {
	Description string
	Errors      []SyntaxError
}

// SyntaxChecker is the external collaborator contract C6/C7 call after a
// successful write or edit: "check(extension, text) -> {description,
// errors}". It is optional — a Service with a nil SyntaxCheck simply never
// appends a syntax-warning advisory, matching the source's "no checker
// registered for this extension" behavior. No concrete tree-sitter (or
// other parser) binding is wired here: none of the reference examples
// import one, so this stays a pluggable interface rather than a
// fabricated dependency (see DESIGN.md).
type SyntaxChecker interface {
	Check(extension, text string) (SyntaxReport, bool)
}

// syntaxWarning renders a successful-edit advisory the way C6 describes:
// the checker's description plus a ±contextLines window around the first
// reported error, if any.
func syntaxWarning(report SyntaxReport, lines []string, contextLines int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Warning: tree-sitter reported syntax errors: %s", report.Description)
	if len(report.Errors) == 0 {
		return b.String()
	}
	first := report.Errors[0]
	start := first.Line - contextLines
	if start < 1 {
		start = 1
	}
	end := first.Line + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	if start > end || start > len(lines) {
		return b.String()
	}
	b.WriteString("\n```\n")
	b.WriteString(strings.Join(lines[start-1:end], "\n"))
	b.WriteString("\n```")
	return b.String()
}

func extOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
