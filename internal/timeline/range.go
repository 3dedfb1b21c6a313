package timeline

// Range is an inclusive [Start, End] interval on the canonical timeline.
// A zero Start places no lower bound at all, so times before the Unix epoch
// (a small WebKit or FILETIME value, for instance) are still inside the
// range. A zero End means "now", resolved each time the range is evaluated,
// so two evaluations at different wall-clock times may disagree about
// records near the present.
type Range struct {
	Start Timestamp
	End   Timestamp
}

// IsUnbounded reports whether neither side of the range is set.
func (r Range) IsUnbounded() bool {
	return r.Start == 0 && r.End == 0
}

// Bounds returns the concrete inclusive bounds given the current time. An
// unset start has no lower bound; an unset end resolves to now.
func (r Range) Bounds(now Timestamp) (lo, hi Timestamp, hasLo bool) {
	hi = r.End
	if hi == 0 {
		hi = now
	}
	return r.Start, hi, r.Start != 0
}

// Contains reports whether ts falls inside the range evaluated at now.
func (r Range) Contains(ts, now Timestamp) bool {
	lo, hi, hasLo := r.Bounds(now)
	if hasLo && ts < lo {
		return false
	}
	return ts <= hi
}

// Filter returns the records whose timestamp, as reported by at, falls inside
// r evaluated at now. Surviving records keep their relative order. The input
// slice is not modified.
func Filter[T any](records []T, r Range, at func(T) Timestamp, now Timestamp) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if r.Contains(at(rec), now) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterNow is Filter evaluated against the wall clock.
func FilterNow[T any](records []T, r Range, at func(T) Timestamp) []T {
	return Filter(records, r, at, Now())
}
