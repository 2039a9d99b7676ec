package hierarchy

import "testing"

// TestRangeBasics verifies the half-open range helpers
func TestRangeBasics(t *testing.T) {
	r := WithLength(3, 4)
	if r.End() != 7 {
		t.Errorf("expected End 7, got %d", r.End())
	}
	if r.Empty() {
		t.Error("expected non-empty range")
	}
	if !r.Contains(3) || !r.Contains(6) {
		t.Error("expected range to contain its bounds-adjusted rows")
	}
	if r.Contains(7) || r.Contains(2) {
		t.Error("expected range to exclude rows outside [3,7)")
	}
	if got := r.String(); got != "[3, 7)" {
		t.Errorf("expected \"[3, 7)\", got %q", got)
	}
	if !EmptyRange.Empty() {
		t.Error("expected EmptyRange to be empty")
	}
}
