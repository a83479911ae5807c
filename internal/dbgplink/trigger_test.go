package dbgplink

import (
	"reflect"
	"testing"
)

func TestSplitQuoted(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"php app.php", []string{"php", "app.php"}},
		{`php -d xdebug.start_with_request=yes app.php`, []string{"php", "-d", "xdebug.start_with_request=yes", "app.php"}},
		{`php -r "echo 'hi there'"`, []string{"php", "-r", "echo 'hi there'"}},
		{"  ", nil},
		{"", nil},
	}
	for _, c := range cases {
		got := SplitQuoted(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("SplitQuoted(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestFirstToken(t *testing.T) {
	if got := firstToken("php app.php"); got != "php" {
		t.Errorf("firstToken = %q, want php", got)
	}
	if got := firstToken(""); got != "" {
		t.Errorf("firstToken(empty) = %q, want empty", got)
	}
}

func TestFeatureTableRecordAndGet(t *testing.T) {
	ft := newFeatureTable()
	if _, ok := ft.get("max_depth"); ok {
		t.Fatalf("expected no value before recording")
	}
	ft.record("max_depth", "3")
	v, ok := ft.get("max_depth")
	if !ok || v != "3" {
		t.Errorf("get(max_depth) = (%q, %v), want (3, true)", v, ok)
	}
	ft.record("max_depth", "5")
	v, ok = ft.get("max_depth")
	if !ok || v != "5" {
		t.Errorf("after overwrite, get(max_depth) = (%q, %v), want (5, true)", v, ok)
	}
}
