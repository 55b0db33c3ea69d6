package editor

import (
	"fmt"
	"math"
	"strings"
)

// Block is one SEARCH/REPLACE pair.
type Block struct {
	Search  []string
	Replace []string
}

// assignment is one matched block within a candidate Plan: the span it
// claimed in the original content, the tolerance hits that justified the
// match (nil for exact), and the lines to splice in.
type assignment struct {
	span        Span
	tolerances  []TolerancesHit
	replaceWith []string
}

// Plan is one full, self-consistent way of matching every block against
// the original content (: "list of (slice,
// tolerance_hits) candidates"). Ambiguous input produces multiple Plans.
type Plan struct {
	Original     []string
	SearchBlocks [][]string
	Assignment   []assignment
}

const noMatchErrorName = "The blocks couldn't be matched, maybe the sequence of search blocks was incorrect?"

// EditFile searches fileLines for every block in sequence, backtracking
// over ambiguous matches, and returns every self-consistent way the full
// block sequence can be matched: block i's match constrains where block
// i+1 may start.
func EditFile(fileLines []string, blocks []Block) []Plan {
	searchBlocks := make([][]string, len(blocks))
	for i, b := range blocks {
		searchBlocks[i] = b.Search
	}
	return editFile(fileLines, 0, blocks, 0, DefaultTolerances(), searchBlocks)
}

func editFile(fileLines []string, fileOffset int, blocks []Block, blockOffset int, tolerances []Tolerance, searchBlocks [][]string) []Plan {
	nFile := len(fileLines)
	nBlocks := len(blocks)

	neutral := func() []Plan {
		return []Plan{{Original: fileLines, SearchBlocks: searchBlocks, Assignment: []assignment{{span: Span{0, 0}}}}}
	}

	if fileOffset >= nFile && blockOffset < nBlocks {
		var hits []TolerancesHit
		for _, b := range blocks[blockOffset:] {
			count := len(b.Search)
			if count < 1 {
				count = 1
			}
			hits = append(hits, TolerancesHit{
				Tolerance: Tolerance{Severity: SeverityError, ScoreMultiplier: math.Inf(-1), ErrorName: noMatchErrorName},
				Count:     count,
			})
		}
		return []Plan{{
			Original:     fileLines,
			SearchBlocks: searchBlocks,
			Assignment:   []assignment{{span: Span{0, 0}, tolerances: hits}},
		}}
	}
	if fileOffset >= nFile || blockOffset >= nBlocks {
		return neutral()
	}

	block := blocks[blockOffset]
	var allOutputs [][]assignment

	exact := MatchExact(fileLines, fileOffset, block.Search)
	if len(exact) > 0 {
		for _, span := range exact {
			for _, rem := range editFile(fileLines, span.Stop, blocks, blockOffset+1, tolerances, searchBlocks) {
				allOutputs = append(allOutputs, append([]assignment{{span: span, replaceWith: block.Replace}}, rem.Assignment...))
			}
		}
	} else {
		matches := MatchWithTolerance(fileLines, fileOffset, block.Search, tolerances)
		replaceBy := block.Replace
		if len(matches) == 0 {
			matches = MatchWithToleranceEmptyLines(fileLines, fileOffset, block.Search, tolerances)
			replaceBy = removeLeadingTrailingEmptyLines(block.Replace)
			if len(matches) == 0 {
				if span, sim, ctx := FindLeastEditDistanceSubstring(fileLines, fileOffset, block.Search); span != nil {
					count := len(block.Search)
					if sim > 0 {
						count = int(float64(len(block.Search)) / sim)
					}
					matches = []ToleranceMatch{{
						Span: *span,
						Tolerances: []TolerancesHit{{
							Tolerance: Tolerance{
								Severity:        SeverityError,
								ScoreMultiplier: -1,
								ErrorName:       "Couldn't find match. Do you mean to match the lines in the following context?\n```" + ctx + "\n```",
							},
							Count: count,
						}},
					}}
				}
			}
		}
		for _, m := range matches {
			for _, rem := range editFile(fileLines, m.Span.Stop, blocks, blockOffset+1, tolerances, searchBlocks) {
				allOutputs = append(allOutputs, append([]assignment{{span: m.Span, tolerances: m.Tolerances, replaceWith: replaceBy}}, rem.Assignment...))
			}
		}
	}

	if len(allOutputs) == 0 {
		count := len(block.Search)
		if count < 1 {
			count = 1
		}
		hit := TolerancesHit{
			Tolerance: Tolerance{Severity: SeverityError, ScoreMultiplier: math.Inf(-1), ErrorName: noMatchErrorName},
			Count:     count,
		}
		return []Plan{{
			Original:     fileLines,
			SearchBlocks: searchBlocks,
			Assignment:   []assignment{{span: Span{0, 0}, tolerances: []TolerancesHit{hit}}},
		}}
	}

	plans := make([]Plan, len(allOutputs))
	for i, a := range allOutputs {
		plans[i] = Plan{Original: fileLines, SearchBlocks: searchBlocks, Assignment: a}
	}
	return plans
}

// score sums count*multiplier across every tolerance hit in the plan —
// lower is better; an exact-only plan scores 0.
func (p Plan) score() float64 {
	total := 0.0
	for _, a := range p.Assignment {
		for _, t := range a.tolerances {
			total += float64(t.Count) * t.ScoreMultiplier
		}
	}
	return total
}

// BestMatches returns the subset of plans tied for the lowest (best)
// score, within a 1e-3 tolerance, and whether that best score is negative
// (meaning even the best plan hit an ERROR-level tolerance).
func BestMatches(plans []Plan) (best []Plan, hasNegative bool) {
	bestScore := math.Inf(-1)
	for _, p := range plans {
		s := p.score()
		switch {
		case len(best) == 0:
			best = []Plan{p}
			bestScore = s
		case s < bestScore:
			best = []Plan{p}
			bestScore = s
		case math.Abs(s-bestScore) < 1e-3:
			best = append(best, p)
		}
	}
	return best, bestScore < 0
}

// ErrMatch is returned by ReplaceOrThrow when a plan couldn't be applied
// cleanly — an ERROR-severity tolerance fired, or the edit-distance
// fallback was all that matched.
type ErrMatch struct{ Messages []string }

func (e *ErrMatch) Error() string { return strings.Join(e.Messages, "\n") }

// ReplaceOrThrow splices each assignment's replacement lines into the
// original content in order, collecting WARNING-severity tolerance names
// as warnings and aborting with ErrMatch once maxErrors ERROR-severity
// tolerances have fired (or, having finished, if any fired at all) —
// "apply the chosen plan".
func (p Plan) ReplaceOrThrow(maxErrors int) (newLines []string, warnings []string, err error) {
	var errs []string
	warnSet := make(map[string]bool)
	lastIdx := 0

	for i, a := range p.Assignment {
		// editFile ends every fully matched plan with an empty trailing
		// assignment; only the assignments that pair with a search block
		// are applied.
		if i >= len(p.SearchBlocks) {
			break
		}
		search := p.SearchBlocks[i]
		for _, tol := range a.tolerances {
			if tol.Count <= 0 {
				continue
			}
			switch tol.Severity {
			case SeverityWarning:
				warnSet[tol.ErrorName] = true
			case SeverityError:
				errs = append(errs, fmt.Sprintf("Got error while processing the following search block:\n---\n```\n%s\n```\n---\nError:\n%s\n---", strings.Join(search, "\n"), tol.ErrorName))
			}
			if len(errs) >= maxErrors {
				return nil, nil, &ErrMatch{Messages: errs}
			}
		}
		if lastIdx < a.span.Start {
			newLines = append(newLines, p.Original[lastIdx:a.span.Start]...)
		}
		newLines = append(newLines, a.replaceWith...)
		lastIdx = a.span.Stop
	}
	if lastIdx < len(p.Original) {
		newLines = append(newLines, p.Original[lastIdx:]...)
	}

	if len(errs) > 0 {
		return nil, nil, &ErrMatch{Messages: errs}
	}
	for w := range warnSet {
		warnings = append(warnings, w)
	}
	return newLines, warnings, nil
}
