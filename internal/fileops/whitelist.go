// Package fileops implements the read-coverage whitelist and the file
// read/write/edit service built on top of it: a line-ranged coverage
// model rather than a flat whitelist-for-overwrite set, so a file can be
// partially read and partially covered.
package fileops

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"
	"sync"
)

// LineRange is an inclusive [Start, End] 1-based line interval.
type LineRange struct{ Start, End int }

// WhitelistEntry tracks one file's known content hash, total line count,
// and the coalesced set of line ranges the caller has read.
type WhitelistEntry struct {
	ContentHash string
	TotalLines  int
	ReadRanges  []LineRange // sorted, non-overlapping, coalesced
}

// CoveredLines returns the total number of lines covered by ReadRanges.
func (e WhitelistEntry) CoveredLines() int {
	n := 0
	for _, r := range e.ReadRanges {
		n += r.End - r.Start + 1
	}
	return n
}

// CoveragePercent returns the covered fraction of TotalLines as 0-100.
func (e WhitelistEntry) CoveragePercent() float64 {
	if e.TotalLines <= 0 {
		return 100
	}
	return 100 * float64(e.CoveredLines()) / float64(e.TotalLines)
}

// UnreadRanges returns the complement of ReadRanges within [1, TotalLines].
func (e WhitelistEntry) UnreadRanges() []LineRange {
	var out []LineRange
	next := 1
	for _, r := range e.ReadRanges {
		if r.Start > next {
			out = append(out, LineRange{next, r.Start - 1})
		}
		if r.End+1 > next {
			next = r.End + 1
		}
	}
	if next <= e.TotalLines {
		out = append(out, LineRange{next, e.TotalLines})
	}
	return out
}

func coalesce(ranges []LineRange) []LineRange {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	out := []LineRange{ranges[0]}
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// DefaultOverwriteThreshold is the read-coverage percentage required
// before edit/write is allowed to touch an existing file without
// triggering the overwrite-safety error.
const DefaultOverwriteThreshold = 99.0

// Whitelist is the process-wide read-coverage tracker. Safe for
// concurrent use.
type Whitelist struct {
	threshold float64
	mu        sync.Mutex
	entries   map[string]*WhitelistEntry
}

// NewWhitelist creates an empty tracker using DefaultOverwriteThreshold.
func NewWhitelist() *Whitelist {
	return &Whitelist{threshold: DefaultOverwriteThreshold, entries: make(map[string]*WhitelistEntry)}
}

// RecordRead upserts path's entry with a newly-read range. If the file's
// current hash differs from what's on record, prior ranges are discarded
// first — a changed file invalidates earlier read-coverage claims.
func (w *Whitelist) RecordRead(path string, start, end, total int, hash string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[path]
	if !ok || e.ContentHash != hash {
		e = &WhitelistEntry{ContentHash: hash, TotalLines: total}
		w.entries[path] = e
	}
	e.TotalLines = total
	e.ReadRanges = coalesce(append(e.ReadRanges, LineRange{start, end}))
}

// RecordWrite replaces path's entry with full coverage over a freshly
// written file.
func (w *Whitelist) RecordWrite(path string, total int, hash string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[path] = &WhitelistEntry{
		ContentHash: hash,
		TotalLines:  total,
		ReadRanges:  []LineRange{{1, total}},
	}
}

// CanOverwrite reports whether path's on-disk hash matches the recorded
// entry and its covered line count meets the overwrite threshold.
func (w *Whitelist) CanOverwrite(path string) bool {
	hash, total, err := hashFile(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[path]
	if !ok || e.ContentHash != hash {
		return false
	}
	return e.CoveragePercent() >= w.threshold
}

// Invalidate discards path's recorded coverage, forcing the next
// CanOverwrite check to fail until the file is read again. Called by
// Watcher when a watched file changes on disk out-of-band.
func (w *Whitelist) Invalidate(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entries, path)
}

// Entry returns a copy of path's whitelist entry, if any.
func (w *Whitelist) Entry(path string) (WhitelistEntry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[path]
	if !ok {
		return WhitelistEntry{}, false
	}
	return *e, true
}

// hashFile returns a file's content hash and line count.
func hashFile(path string) (hash string, lines int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 64*1024)
	var size int64
	var endsWithNewline bool
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			size += int64(n)
			for _, b := range buf[:n] {
				if b == '\n' {
					lines++
				}
			}
			endsWithNewline = buf[n-1] == '\n'
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", 0, rerr
		}
	}
	if size > 0 && !endsWithNewline {
		lines++
	}
	return hex.EncodeToString(h.Sum(nil)), lines, nil
}
