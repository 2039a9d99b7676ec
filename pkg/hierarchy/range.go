package hierarchy

import "fmt"

// Range is a half-open span of rows in the flattened view, [Start,
// Start+Length). Expand and Collapse report the inserted or removed rows as
// a Range so an already-rendered view can be patched instead of redrawn.
type Range struct {
	Start  int
	Length int
}

// EmptyRange is the zero-length range returned by no-op mutations.
var EmptyRange = Range{}

// WithLength builds a range from a start row and a length.
func WithLength(start, length int) Range {
	return Range{Start: start, Length: length}
}

// End returns the exclusive end row of the range.
func (r Range) End() int {
	return r.Start + r.Length
}

// Empty reports whether the range covers no rows.
func (r Range) Empty() bool {
	return r.Length <= 0
}

// Contains reports whether the row index falls inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End()
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End())
}
