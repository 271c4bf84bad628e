package transcript

import "testing"

func testCues() []Cue {
	return []Cue{
		{Start: 10, End: 20, Text: "a"},
		{Start: 20, End: 30, Text: "b"},
		{Start: 45, End: 60, Text: "c"}, // gap between 30 and 45
	}
}

func TestIndex_Lookup(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want int
	}{
		{"before first cue", 5, 0},
		{"inside first cue", 15, 0},
		{"boundary start", 20, 1},
		{"inside second cue", 25, 1},
		{"in gap, preceding cue stays active", 35, 1},
		{"inside third cue", 50, 2},
		{"after last cue", 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := NewIndex(testCues())
			if got := ix.Lookup(tt.t); got != tt.want {
				t.Errorf("Lookup(%v): expected %d, got %d", tt.t, tt.want, got)
			}
		})
	}
}

func TestIndex_LookupEmpty(t *testing.T) {
	ix := NewIndex(nil)
	if got := ix.Lookup(10); got != -1 {
		t.Errorf("Expected -1 for empty cue list, got %d", got)
	}
}

func TestIndex_MonotonicScanThenSeekBack(t *testing.T) {
	ix := NewIndex(testCues())

	// Monotonic ticks
	for _, tt := range []struct {
		t    float64
		want int
	}{{11, 0}, {12, 0}, {21, 1}, {50, 2}} {
		if got := ix.Lookup(tt.t); got != tt.want {
			t.Errorf("Lookup(%v): expected %d, got %d", tt.t, tt.want, got)
		}
	}

	// Seek backwards must still return the right cue
	if got := ix.Lookup(15); got != 0 {
		t.Errorf("Lookup(15) after seek back: expected 0, got %d", got)
	}
	if got := ix.Lookup(25); got != 1 {
		t.Errorf("Lookup(25): expected 1, got %d", got)
	}
}
