// Package editor implements the fuzzy line-matching engine and
// SEARCH/REPLACE block applier: exact match first, then increasingly
// lenient tolerances, then an edit-distance "did you mean" fallback.
package editor

import (
	"regexp"
	"strings"
)

// Severity is how strongly a Tolerance hit should be reported.
type Severity string

const (
	SeveritySilent  Severity = "SILENT"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Tolerance is one line-normalization rule tried, in order, when an exact
// match fails.
type Tolerance struct {
	LineProcess     func(string) string
	Severity        Severity
	ScoreMultiplier float64
	ErrorName       string
}

// TolerancesHit pairs a Tolerance with how many lines of a match it
// accounted for.
type TolerancesHit struct {
	Tolerance
	Count int
}

var wsPattern = regexp.MustCompile(`\s`)

func lineProcessMaxSpaceTolerance(line string) string {
	return wsPattern.ReplaceAllString(strings.TrimSpace(line), "")
}

// DefaultTolerances returns the three standard tolerance levels, from
// strictest to loosest: trailing-whitespace-insensitive (silent),
// leading-whitespace-insensitive (warning), all-whitespace-insensitive
// (warning).
func DefaultTolerances() []Tolerance {
	return []Tolerance{
		{
			LineProcess:     func(s string) string { return strings.TrimRight(s, " \t\r\n\v\f") },
			Severity:        SeveritySilent,
			ScoreMultiplier: 1,
		},
		{
			LineProcess:     func(s string) string { return strings.TrimLeft(s, " \t\r\n\v\f") },
			Severity:        SeverityWarning,
			ScoreMultiplier: 10,
			ErrorName:       "Warning: matching without considering indentation (leading spaces).",
		},
		{
			LineProcess:     lineProcessMaxSpaceTolerance,
			Severity:        SeverityWarning,
			ScoreMultiplier: 50,
			ErrorName:       "Warning: matching after removing all spaces in lines.",
		},
	}
}

// removeLeadingTrailingEmptyLines trims blank lines (by Trim) from both
// ends of lines, leaving the interior untouched.
func removeLeadingTrailingEmptyLines(lines []string) []string {
	start, end := 0, len(lines)-1
	if end < start {
		return lines
	}
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) {
		return nil
	}
	for end >= 0 && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	return lines[start : end+1]
}
