package xlog

import "testing"

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello..."},
		{"", 3, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.n); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestSetDebugToggle(t *testing.T) {
	SetDebug(true)
	if !Debug() {
		t.Errorf("Debug() = false after SetDebug(true)")
	}
	SetDebug(false)
	if Debug() {
		t.Errorf("Debug() = true after SetDebug(false)")
	}
}
