package editor

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	searchMarker  = regexp.MustCompile(`^<<<<<<+\s*SEARCH\s*$`)
	dividerMarker = regexp.MustCompile(`^======*\s*$`)
	replaceMarker = regexp.MustCompile(`^>>>>>>+\s*REPLACE\s*$`)
)

// ErrSyntax is returned by ParseBlocks on malformed SEARCH/REPLACE marker
// text.
type ErrSyntax struct{ Detail string }

func (e *ErrSyntax) Error() string {
	return fmt.Sprintf(`Got syntax error while parsing search replace blocks:
%s
---

Make sure blocks are in correct sequence, and the markers are in separate lines:

<<<<<<< SEARCH
    example old
=======
    example new
>>>>>>> REPLACE
`, e.Detail)
}

// ParseBlocks parses one or more SEARCH/REPLACE marker blocks out of text
//, in the order they appear.
func ParseBlocks(text string) ([]Block, error) {
	lines := strings.Split(text, "\n")
	n := len(lines)
	if n == 0 {
		return nil, &ErrSyntax{Detail: "Error: No input to search replace edit"}
	}

	var blocks []Block
	i := 0
	for i < n {
		if !searchMarker.MatchString(lines[i]) {
			if replaceMarker.MatchString(lines[i]) || dividerMarker.MatchString(lines[i]) {
				return nil, &ErrSyntax{Detail: fmt.Sprintf("Line %d: Found stray marker outside block: %s", i+1, lines[i])}
			}
			i++
			continue
		}

		startLine := i + 1
		i++
		var search []string
		for i < n && !dividerMarker.MatchString(lines[i]) {
			if searchMarker.MatchString(lines[i]) || replaceMarker.MatchString(lines[i]) {
				return nil, &ErrSyntax{Detail: fmt.Sprintf("Line %d: Found stray marker in SEARCH block: %s", i+1, lines[i])}
			}
			search = append(search, lines[i])
			i++
		}
		if i >= n {
			return nil, &ErrSyntax{Detail: fmt.Sprintf("Line %d: Unclosed SEARCH block - missing ======= marker", startLine)}
		}
		if len(search) == 0 {
			return nil, &ErrSyntax{Detail: fmt.Sprintf("Line %d: SEARCH block cannot be empty", startLine)}
		}

		i++ // skip divider
		var replace []string
		for i < n && !replaceMarker.MatchString(lines[i]) {
			if searchMarker.MatchString(lines[i]) || dividerMarker.MatchString(lines[i]) {
				return nil, &ErrSyntax{Detail: fmt.Sprintf("Line %d: Found stray marker in REPLACE block: %s", i+1, lines[i])}
			}
			replace = append(replace, lines[i])
			i++
		}
		if i >= n {
			return nil, &ErrSyntax{Detail: fmt.Sprintf("Line %d: Unclosed block - missing REPLACE marker", startLine)}
		}
		i++ // skip REPLACE marker

		blocks = append(blocks, Block{Search: search, Replace: replace})
	}

	if len(blocks) == 0 {
		return nil, &ErrSyntax{Detail: "No valid search replace blocks found, ensure your SEARCH/REPLACE blocks are formatted correctly"}
	}
	return blocks, nil
}
