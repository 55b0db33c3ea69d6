package editor

import "strings"

// Span is a half-open [Start, Stop) line range within a content slice.
type Span struct{ Start, Stop int }

func (s Span) Len() int { return s.Stop - s.Start }

// ToleranceMatch pairs a matched span with the tolerance hits that made it
// match (empty for an exact match).
type ToleranceMatch struct {
	Span       Span
	Tolerances []TolerancesHit
}

// findContiguousMatch turns, for each search line, the set of content line
// indices it's allowed to land on, into the spans where consecutive search
// lines land on consecutive content indices.
func findContiguousMatch(searchLinePositions []map[int]bool) []Span {
	n := len(searchLinePositions)
	var chainsFrom func(offset, index int) bool
	chainsFrom = func(offset, index int) bool {
		if offset >= n {
			return true
		}
		if searchLinePositions[offset][index] {
			return chainsFrom(offset+1, index+1)
		}
		return false
	}

	var spans []Span
	for index := range searchLinePositions[0] {
		if chainsFrom(1, index+1) {
			spans = append(spans, Span{index, index + n})
		}
	}
	return spans
}

// MatchExact finds every contiguous occurrence of search within
// content[offset:], using an exact string comparison per line.
func MatchExact(content []string, offset int, search []string) []Span {
	nSearch := len(search)
	nContent := len(content) - offset
	if nSearch == 0 || nContent == 0 || nSearch > nContent {
		return nil
	}

	positions := make(map[string]map[int]bool)
	for i := offset; i < len(content); i++ {
		line := content[i]
		if positions[line] == nil {
			positions[line] = make(map[int]bool)
		}
		positions[line][i] = true
	}

	lineSets := make([]map[int]bool, nSearch)
	for i, line := range search {
		lineSets[i] = positions[line]
		if lineSets[i] == nil {
			lineSets[i] = make(map[int]bool)
		}
	}
	return findContiguousMatch(lineSets)
}

// MatchWithTolerance behaves like MatchExact but additionally accepts a
// content line under a Tolerance's LineProcess normalization, recording
// which tolerance fired for each matched line.
func MatchWithTolerance(content []string, offset int, search []string, tolerances []Tolerance) []ToleranceMatch {
	nSearch := len(search)
	nContent := len(content) - offset
	if nSearch == 0 || nContent == 0 || nSearch > nContent {
		return nil
	}

	exactPositions := make(map[string]map[int]bool)
	for i := offset; i < len(content); i++ {
		line := content[i]
		if exactPositions[line] == nil {
			exactPositions[line] = make(map[int]bool)
		}
		exactPositions[line][i] = true
	}

	lineSets := make([]map[int]bool, nSearch)
	toleranceUsedFor := make([]map[int]int, nSearch) // content index -> tolerance index
	for i, line := range search {
		src := exactPositions[line]
		lineSets[i] = make(map[int]bool, len(src))
		for idx := range src {
			lineSets[i][idx] = true
		}
		toleranceUsedFor[i] = make(map[int]int)
	}

	for tidx, tol := range tolerances {
		normalized := make(map[string]map[int]bool)
		for i := offset; i < len(content); i++ {
			key := tol.LineProcess(content[i])
			if normalized[key] == nil {
				normalized[key] = make(map[int]bool)
			}
			normalized[key][i] = true
		}
		for i, line := range search {
			for idx := range normalized[tol.LineProcess(line)] {
				if !lineSets[i][idx] {
					lineSets[i][idx] = true
					toleranceUsedFor[i][idx] = tidx
				}
			}
		}
	}

	spans := findContiguousMatch(lineSets)

	out := make([]ToleranceMatch, len(spans))
	for si, span := range spans {
		hits := make([]TolerancesHit, len(tolerances))
		for i, tol := range tolerances {
			hits[i] = TolerancesHit{Tolerance: tol}
		}
		for searchIdx, contentIdx := 0, span.Start; contentIdx < span.Stop; searchIdx, contentIdx = searchIdx+1, contentIdx+1 {
			if tidx, ok := toleranceUsedFor[searchIdx][contentIdx]; ok {
				hits[tidx].Count++
			}
		}
		out[si] = ToleranceMatch{Span: span, Tolerances: hits}
	}
	return out
}

// MatchWithToleranceEmptyLines is MatchWithTolerance run after discarding
// every blank line from both content and search, then mapping matched
// spans back to their original (pre-filter) indices.
func MatchWithToleranceEmptyLines(content []string, offset int, search []string, tolerances []Tolerance) []ToleranceMatch {
	var filtered []string
	newToOriginal := make(map[int]int)
	for i := offset; i < len(content); i++ {
		if strings.TrimSpace(content[i]) != "" {
			newToOriginal[len(filtered)] = i
			filtered = append(filtered, content[i])
		}
	}

	var filteredSearch []string
	for _, line := range search {
		if strings.TrimSpace(line) != "" {
			filteredSearch = append(filteredSearch, line)
		}
	}

	matches := MatchWithTolerance(filtered, 0, filteredSearch, tolerances)
	out := make([]ToleranceMatch, len(matches))
	for i, m := range matches {
		out[i] = ToleranceMatch{
			Span:       Span{newToOriginal[m.Span.Start], newToOriginal[m.Span.Stop-1] + 1},
			Tolerances: m.Tolerances,
		}
	}
	return out
}
