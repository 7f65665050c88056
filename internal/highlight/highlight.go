// Package highlight splits page text around an answer span so the span can
// be rendered distinctly from its surroundings.
package highlight

// Segments holds the three consecutive parts of a highlighted text.
type Segments struct {
	Before    string
	Highlight string
	After     string
}

// Split partitions text into text[:start], text[start:end] and text[end:].
// Offsets count characters (runes), not bytes. Spans outside the text are
// clamped so Split never panics: start is bounded by the text length and
// end is bounded by start and the text length.
func Split(text string, start, end int) Segments {
	runes := []rune(text)
	n := len(runes)
	start = clamp(start, 0, n)
	end = clamp(end, start, n)
	return Segments{
		Before:    string(runes[:start]),
		Highlight: string(runes[start:end]),
		After:     string(runes[end:]),
	}
}

// Text reassembles the original text.
func (s Segments) Text() string {
	return s.Before + s.Highlight + s.After
}

// Empty reports whether the highlighted part has no characters.
func (s Segments) Empty() bool {
	return s.Highlight == ""
}

// Render joins the segments, passing the highlighted part through mark.
// A nil mark leaves the text untouched.
func (s Segments) Render(mark func(string) string) string {
	if mark == nil {
		return s.Text()
	}
	return s.Before + mark(s.Highlight) + s.After
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
