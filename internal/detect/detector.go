// Package detect finds cookies whose creation is not corroborated by any
// browsing history.
//
// A history record corroborates a cookie when its visit time lies within
// Window.Micros of the cookie's creation time, inclusive on both sides, and
// also inside the analysis range. Cookies without a corroborating visit are
// discrepancies. The detector is a pure function of its inputs: it does no
// I/O, never fails, keeps the input cookie order and does not deduplicate.
package detect

import (
	"slices"

	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/timeline"
)

// DefaultWindowMicros is the corroboration window used when none is given.
const DefaultWindowMicros uint64 = 5_000_000

// Window is the corroboration tolerance and the analysis range.
type Window struct {
	Micros uint64
	Range  timeline.Range
}

// DefaultWindow returns a five second window over an unbounded range.
func DefaultWindow() Window {
	return Window{Micros: DefaultWindowMicros}
}

// Detect returns the cookies with no corroborating history, resolving an open
// range end against the wall clock.
func Detect(history []artifact.HistoryRecord, cookies []artifact.CookieRecord, w Window) []artifact.CookieRecord {
	return DetectAt(history, cookies, w, timeline.Now())
}

// DetectAt is Detect with "now" pinned.
//
// History is range-filtered once and its visit times sorted, so each cookie
// costs one binary search for the earliest visit not before
// createdAt - Micros.
func DetectAt(history []artifact.HistoryRecord, cookies []artifact.CookieRecord, w Window, now timeline.Timestamp) []artifact.CookieRecord {
	visits := visitIndex(history, w.Range, now)

	out := make([]artifact.CookieRecord, 0)
	for _, c := range cookies {
		if !indexed(visits, c.CreatedAt, w.Micros) {
			out = append(out, c)
		}
	}
	return out
}

// DetectNaive compares every cookie with every history record. It is the
// reference the indexed detector must agree with.
func DetectNaive(history []artifact.HistoryRecord, cookies []artifact.CookieRecord, w Window) []artifact.CookieRecord {
	return DetectNaiveAt(history, cookies, w, timeline.Now())
}

// DetectNaiveAt is DetectNaive with "now" pinned.
func DetectNaiveAt(history []artifact.HistoryRecord, cookies []artifact.CookieRecord, w Window, now timeline.Timestamp) []artifact.CookieRecord {
	out := make([]artifact.CookieRecord, 0)
	for _, c := range cookies {
		if !corroborated(history, c, w, now) {
			out = append(out, c)
		}
	}
	return out
}

func corroborated(history []artifact.HistoryRecord, c artifact.CookieRecord, w Window, now timeline.Timestamp) bool {
	for _, h := range history {
		if Within(h.VisitedAt, c.CreatedAt, w.Micros) && w.Range.Contains(h.VisitedAt, now) {
			return true
		}
	}
	return false
}

// visitIndex returns the sorted visit times of the history inside r.
func visitIndex(history []artifact.HistoryRecord, r timeline.Range, now timeline.Timestamp) []timeline.Timestamp {
	kept := timeline.Filter(history, r, visitedAt, now)
	visits := make([]timeline.Timestamp, len(kept))
	for i, h := range kept {
		visits[i] = h.VisitedAt
	}
	slices.Sort(visits)
	return visits
}

func indexed(visits []timeline.Timestamp, created timeline.Timestamp, window uint64) bool {
	i, _ := slices.BinarySearch(visits, lowerEdge(created, window))
	return i < len(visits) && Within(visits[i], created, window)
}

// Within reports whether |a - b| <= window without overflowing for any pair
// of timestamps or any window.
func Within(a, b timeline.Timestamp, window uint64) bool {
	return distance(a, b) <= window
}

func distance(a, b timeline.Timestamp) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// lowerEdge is at - window saturated at the smallest timestamp.
func lowerEdge(at timeline.Timestamp, window uint64) timeline.Timestamp {
	// Distance from the minimum int64 to at; always fits in uint64.
	room := uint64(at) - (1 << 63)
	if window >= room {
		return minTimestamp
	}
	return timeline.Timestamp(uint64(at) - window)
}

const minTimestamp = timeline.Timestamp(-1 << 63)

func visitedAt(h artifact.HistoryRecord) timeline.Timestamp { return h.VisitedAt }
