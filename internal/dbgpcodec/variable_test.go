package dbgpcodec

import "testing"

func TestDecodePropertyScalarBase64(t *testing.T) {
	root, err := ParseXML([]byte(`<property name="$foo" type="string" encoding="base64" size="5">aGVsbG8=</property>`))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	vi := DecodeProperty(root)
	if vi.Name != "$foo" || vi.Type != "string" {
		t.Fatalf("got %+v", vi)
	}
	if vi.Value != "hello" {
		t.Errorf("Value = %v, want hello", vi.Value)
	}
	if vi.Truncated {
		t.Errorf("should not be truncated: size matches decoded length")
	}
}

func TestDecodePropertyTruncated(t *testing.T) {
	root, err := ParseXML([]byte(`<property name="$s" type="string" encoding="base64" size="500">aGVsbG8=</property>`))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	vi := DecodeProperty(root)
	if !vi.Truncated {
		t.Errorf("expected Truncated=true when size exceeds decoded text length")
	}
}

func TestDecodePropertyChildren(t *testing.T) {
	root, err := ParseXML([]byte(`<property name="$arr" type="array" numchildren="2">
		<property name="0" type="int">1</property>
		<property name="1" type="int">2</property>
	</property>`))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	vi := DecodeProperty(root)
	if len(vi.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(vi.Children))
	}
	if vi.Children[0].Value != int64(1) || vi.Children[1].Value != int64(2) {
		t.Errorf("children values = %v, %v", vi.Children[0].Value, vi.Children[1].Value)
	}
}

func TestCoerceScalarTypes(t *testing.T) {
	cases := []struct {
		typ, text string
		want      interface{}
	}{
		{"int", "42", int64(42)},
		{"float", "3.5", 3.5},
		{"bool", "1", true},
		{"bool", "0", false},
		{"null", "", nil},
		{"string", "hi", "hi"},
		{"resource", "Resource id #5", "[resource: Resource id #5]"},
	}
	for _, c := range cases {
		got := coerceScalar(c.typ, c.text)
		if got != c.want {
			t.Errorf("coerceScalar(%q, %q) = %v, want %v", c.typ, c.text, got, c.want)
		}
	}
}

func TestDecodeFileURI(t *testing.T) {
	cases := map[string]string{
		"file:///var/www/html/index.php": "/var/www/html/index.php",
		"file:///path%20with%20space.php": "/path with space.php",
		"/already/local.php":              "/already/local.php",
	}
	for in, want := range cases {
		if got := DecodeFileURI(in); got != want {
			t.Errorf("DecodeFileURI(%q) = %q, want %q", in, got, want)
		}
	}
}
