package recognizer

// FilterEntries keeps entries whose confidence is at least threshold, preserving
// order. The result is never nil.
func FilterEntries(entries []Entry, threshold float64) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Confidence >= threshold {
			out = append(out, e)
		}
	}
	return out
}

// Retain reports whether a text-mode result survives the confidence filter.
// Timeouts always do.
func Retain(r Result, threshold float64) bool {
	return r.Timeout || r.Confidence >= threshold
}
