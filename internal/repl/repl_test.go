package repl

import "testing"

func TestBracesOpen(t *testing.T) {
	cases := []struct {
		src  string
		want int
	}{
		{"1 + 2", 0},
		{"local t = {", 1},
		{"local t = {1, 2}", 0},
		{"foo(1, (2", 2},
		{"foo(1, (2))", 0},
		{`"(not a paren"`, 0},
		{`"escaped \" quote ("`, 0},
	}
	for _, c := range cases {
		if got := bracesOpen(c.src); got != c.want {
			t.Errorf("bracesOpen(%q) = %d, want %d", c.src, got, c.want)
		}
	}
}
