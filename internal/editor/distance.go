package editor

import "strings"

// SequenceMatchRatio computes a Ratcliff/Obershelp similarity ratio
// between two strings: 2*M / T, where M is the total length of the
// longest-matching-blocks decomposition and T is the combined rune length
// of both strings.
func SequenceMatchRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunLength(ar, br)) / float64(total)
}

// matchingRunLength recursively finds the longest common run, then sums
// the matching run lengths of the (disjoint) left and right remainders —
// the same divide-and-conquer difflib.get_matching_blocks uses.
func matchingRunLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestCommonRun(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingRunLength(a[:i], b[:j]) + matchingRunLength(a[i+size:], b[j+size:])
}

// longestCommonRun finds the longest contiguous run shared by a and b via
// a standard O(len(a)*len(b)) DP, returning its start offsets in each and
// its length.
func longestCommonRun(a, b []rune) (ai, bi, size int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return
}

// FindLeastEditDistanceSubstring slides a window the length of findLines
// across content[offset:], scoring each position by the sum of per-line
// SequenceMatchRatio against findLines, and returns the best-scoring
// span plus up to 10 lines of context on either side — the "did you mean"
// fallback used when no tolerance level matches at all.
func FindLeastEditDistanceSubstring(content []string, offset int, findLines []string) (best *Span, similarity float64, context string) {
	var contentLines []string
	newToOriginal := make(map[int]int)
	for i := offset; i < len(content); i++ {
		trimmed := strings.TrimSpace(content[i])
		if trimmed == "" {
			continue
		}
		newToOriginal[len(contentLines)] = i - offset
		contentLines = append(contentLines, trimmed)
	}

	var search []string
	for _, l := range findLines {
		if t := strings.TrimSpace(l); t != "" {
			search = append(search, t)
		}
	}

	limit := len(contentLines) - len(search) + 1
	if limit < 1 {
		limit = 1
	}

	var bestI, bestJ int
	maxSim := 0.0
	found := false
	for i := 0; i < limit; i++ {
		score := 0.0
		for j := range search {
			if i+j < len(contentLines) {
				score += SequenceMatchRatio(contentLines[i+j], search[j])
			}
		}
		if score > maxSim {
			maxSim = score
			bestI, bestJ = i, i+len(search)-1
			found = true
		}
	}
	if !found {
		return nil, 0, ""
	}

	origStart := newToOriginal[bestI]
	origEnd, ok := newToOriginal[bestJ]
	if !ok {
		origEnd = len(content) - offset - 1
	}
	origEnd++
	span := Span{origStart + offset, origEnd + offset}

	ctxStart := origStart + offset - 10
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := origEnd + offset + 10
	if ctxEnd > len(content) {
		ctxEnd = len(content)
	}
	return &span, maxSim, strings.Join(content[ctxStart:ctxEnd], "\n")
}
