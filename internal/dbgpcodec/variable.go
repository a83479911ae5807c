package dbgpcodec

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// VariableInfo is the recursive structure the codec decodes <property>
// elements into.
type VariableInfo struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Value       interface{}     `json:"value,omitempty"`
	Children    []*VariableInfo `json:"children,omitempty"`
	ClassName   string          `json:"classname,omitempty"`
	FullName    string          `json:"fullname,omitempty"`
	NumChildren int             `json:"numchildren,omitempty"`
	Truncated   bool            `json:"truncated,omitempty"`
}

// DecodeProperty converts a <property> (or <error>-free <value>) node into
// a VariableInfo tree, applying the encoding and type-coercion rules of
// the DBGp property format.
func DecodeProperty(n *Node) *VariableInfo {
	vi := &VariableInfo{}
	if name, ok := n.Attr("name"); ok {
		vi.Name = name
	}
	if fn, ok := n.Attr("fullname"); ok {
		vi.FullName = fn
	}
	if cn, ok := n.Attr("classname"); ok {
		vi.ClassName = cn
	}
	typ, _ := n.Attr("type")
	vi.Type = typ

	if nc, ok := n.Attr("numchildren"); ok {
		if v, err := strconv.Atoi(nc); err == nil {
			vi.NumChildren = v
		}
	}

	text := decodeText(n)

	if sizeStr, ok := n.Attr("size"); ok {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > len(text) {
			vi.Truncated = true
		}
	}

	children := n.FindAll("property")
	if len(children) > 0 {
		vi.Children = make([]*VariableInfo, 0, len(children))
		for _, c := range children {
			vi.Children = append(vi.Children, DecodeProperty(c))
		}
		return vi
	}

	vi.Value = coerceScalar(typ, text)
	return vi
}

// decodeText applies the encoding="base64" rule; text is otherwise taken
// literally.
func decodeText(n *Node) string {
	text := strings.TrimSpace(n.Text)
	if enc, ok := n.Attr("encoding"); ok && enc == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	return text
}

// coerceScalar applies DBGp's typed value coercion.
func coerceScalar(typ, text string) interface{} {
	switch typ {
	case "int":
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
		return text
	case "float":
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
		return text
	case "bool":
		return text == "1" || strings.EqualFold(text, "true")
	case "null":
		return nil
	case "resource":
		return fmt.Sprintf("[resource: %s]", text)
	default:
		return text
	}
}

// DecodeFileURI strips a file:// scheme and URL-decodes the remainder.
// Invalid encodings are returned unchanged after stripping the scheme, and
// non-file-URI input is returned unchanged.
func DecodeFileURI(s string) string {
	const scheme = "file://"
	if !strings.HasPrefix(s, scheme) {
		return s
	}
	rest := strings.TrimPrefix(s, scheme)
	decoded, err := url.QueryUnescape(rest)
	if err != nil {
		return rest
	}
	return decoded
}
