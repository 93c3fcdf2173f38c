package proto

import "testing"

func TestLineResolvesFromAbsAnchorsAndDeltas(t *testing.T) {
	p := &Prototype{
		LineDefined: 1,
		LineInfo:    []int32{-1, -1, -1, -1},
		AbsLineInfo: []AbsLineEntry{{PC: 0, Line: 10}, {PC: 2, Line: 20}},
	}
	cases := map[int]int{0: 10, 1: 10, 2: 20, 3: 20}
	for pc, want := range cases {
		if got := p.Line(pc); got != want {
			t.Fatalf("Line(%d) = %d, want %d", pc, got, want)
		}
	}
}

func TestLineFallsBackWithoutDebugInfo(t *testing.T) {
	p := &Prototype{LineDefined: 7}
	if got := p.Line(3); got != 7 {
		t.Fatalf("Line(3) = %d, want 7 (stripped debug info)", got)
	}
}
