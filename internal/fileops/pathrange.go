package fileops

import (
	"regexp"
	"strconv"
	"strings"
)

// rangeSuffix matches the trailing ":start-end" (or ":start-" / ":-end" /
// ":line") form a ReadFiles path argument may carry — the suffix pattern
// is deliberately narrow so URLs containing a colon (e.g.
// "https://host/path") are never misparsed as a line range.
var rangeSuffix = regexp.MustCompile(`^-?\d+(-\d*)?$|^\d+-$`)

// ParsePathRange splits "path" or "path:start-end" into the path and an
// optional 1-based inclusive line range. end == 0 means "to end of file".
func ParsePathRange(arg string) (path string, start, end int, hasRange bool) {
	idx := strings.LastIndex(arg, ":")
	if idx < 0 {
		return arg, 0, 0, false
	}
	suffix := arg[idx+1:]
	if !rangeSuffix.MatchString(suffix) {
		return arg, 0, 0, false
	}

	path = arg[:idx]
	if dash := strings.IndexByte(suffix, '-'); dash >= 0 {
		startStr, endStr := suffix[:dash], suffix[dash+1:]
		if startStr != "" {
			start, _ = strconv.Atoi(startStr)
		} else {
			start = 1
		}
		if endStr != "" {
			end, _ = strconv.Atoi(endStr)
		}
	} else {
		start, _ = strconv.Atoi(suffix)
		end = start
	}
	return path, start, end, true
}
