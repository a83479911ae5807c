package inspect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FilterError is the diagnostic payload returned when a filter expression
// fails to evaluate: {error, variable, type, available_keys, hint}. It
// never aborts the session — evaluator errors downgrade to this
// informational payload.
type FilterError struct {
	Error         string   `json:"error"`
	Variable      string   `json:"variable"`
	Type          string   `json:"type"`
	AvailableKeys []string `json:"available_keys"`
	Hint          string   `json:"hint"`
}

type selectorKind int

const (
	selField selectorKind = iota
	selIndex
	selWildcard
	selRecursive
)

type selector struct {
	kind selectorKind
	name string
	idx  int
}

// parseFilter parses the dollar-rooted dot/bracket path dialect: `$.a.b`,
// `$.a[0]`, `$.a[*].b`, and recursive descent `$..k`.
func parseFilter(expr string) ([]selector, error) {
	s := strings.TrimSpace(expr)
	if !strings.HasPrefix(s, "$") {
		return nil, fmt.Errorf("filter must start with $")
	}
	s = s[1:]

	var sels []selector
	for len(s) > 0 {
		switch {
		case strings.HasPrefix(s, ".."):
			s = s[2:]
			name, rest, err := readIdent(s)
			if err != nil {
				return nil, err
			}
			sels = append(sels, selector{kind: selRecursive, name: name})
			s = rest
		case strings.HasPrefix(s, "."):
			s = s[1:]
			name, rest, err := readIdent(s)
			if err != nil {
				return nil, err
			}
			sels = append(sels, selector{kind: selField, name: name})
			s = rest
		case strings.HasPrefix(s, "["):
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated [ in filter")
			}
			inner := s[1:end]
			s = s[end+1:]
			if inner == "*" {
				sels = append(sels, selector{kind: selWildcard})
				continue
			}
			idx, err := strconv.Atoi(inner)
			if err != nil {
				return nil, fmt.Errorf("invalid array index %q", inner)
			}
			sels = append(sels, selector{kind: selIndex, idx: idx})
		default:
			return nil, fmt.Errorf("unexpected token in filter near %q", s)
		}
	}
	return sels, nil
}

func readIdent(s string) (name, rest string, err error) {
	i := 0
	for i < len(s) && s[i] != '.' && s[i] != '[' {
		i++
	}
	if i == 0 {
		return "", s, fmt.Errorf("expected field name")
	}
	return s[:i], s[i:], nil
}

// Evaluate runs expr against root (the plain structure produced by
// ToPlain). A single match is returned as a bare value; multiple matches
// (from a wildcard or recursive descent) are returned as a slice in
// traversal order.
func Evaluate(root interface{}, expr string) (interface{}, *FilterError) {
	sels, err := parseFilter(expr)
	if err != nil {
		return nil, diagnostic(root, err.Error())
	}

	values := []interface{}{root}
	for _, sel := range sels {
		var next []interface{}
		for _, v := range values {
			matched, err := applySelector(v, sel)
			if err != nil {
				return nil, diagnosticAt(v, root, err.Error())
			}
			next = append(next, matched...)
		}
		values = next
		if len(values) == 0 {
			break
		}
	}

	if len(values) == 1 {
		return values[0], nil
	}
	if len(values) == 0 {
		return []interface{}{}, nil
	}
	return values, nil
}

func applySelector(v interface{}, sel selector) ([]interface{}, error) {
	switch sel.kind {
	case selField:
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("cannot select field %q on a non-object value", sel.name)
		}
		val, ok := m[sel.name]
		if !ok {
			return nil, fmt.Errorf("field %q not found", sel.name)
		}
		return []interface{}{val}, nil

	case selIndex:
		arr, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("cannot index a non-array value")
		}
		idx := sel.idx
		if idx < 0 || idx >= len(arr) {
			return nil, fmt.Errorf("index %d out of range (length %d)", idx, len(arr))
		}
		return []interface{}{arr[idx]}, nil

	case selWildcard:
		switch t := v.(type) {
		case []interface{}:
			return append([]interface{}{}, t...), nil
		case map[string]interface{}:
			keys := sortedKeys(t)
			out := make([]interface{}, 0, len(keys))
			for _, k := range keys {
				out = append(out, t[k])
			}
			return out, nil
		default:
			return nil, fmt.Errorf("cannot apply wildcard to a scalar value")
		}

	case selRecursive:
		var out []interface{}
		collectRecursive(v, sel.name, &out)
		return out, nil
	}
	return nil, fmt.Errorf("unknown selector")
}

func collectRecursive(v interface{}, name string, out *[]interface{}) {
	switch t := v.(type) {
	case map[string]interface{}:
		if val, ok := t[name]; ok {
			*out = append(*out, val)
		}
		for _, k := range sortedKeys(t) {
			collectRecursive(t[k], name, out)
		}
	case []interface{}:
		for _, e := range t {
			collectRecursive(e, name, out)
		}
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func diagnostic(root interface{}, message string) *FilterError {
	return diagnosticAt(root, root, message)
}

// diagnosticAt builds the {error, variable, type, available_keys, hint}
// payload, enumerating the first ~20 navigable paths from root wherever
// the failure occurred.
func diagnosticAt(failedAt, root interface{}, message string) *FilterError {
	return &FilterError{
		Error:         message,
		Type:          plainTypeName(root),
		AvailableKeys: NavigablePaths(root, 20),
		Hint:          "use one of available_keys, or omit filter for a structural summary",
	}
}

// NavigablePaths enumerates up to limit dot/bracket paths reachable from
// root, depth-first (each path is followed by its descendants before its
// next sibling), matching the dialect parseFilter accepts.
func NavigablePaths(root interface{}, limit int) []string {
	var out []string
	var walk func(prefix string, v interface{})
	walk = func(prefix string, v interface{}) {
		if len(out) >= limit {
			return
		}
		switch t := v.(type) {
		case map[string]interface{}:
			for _, k := range sortedKeys(t) {
				if len(out) >= limit {
					return
				}
				path := prefix + "." + k
				out = append(out, path)
				walk(path, t[k])
			}
		case []interface{}:
			for i, e := range t {
				if len(out) >= limit {
					return
				}
				path := fmt.Sprintf("%s[%d]", prefix, i)
				out = append(out, path)
				walk(path, e)
			}
		}
	}
	walk("$", root)
	return out
}

func plainTypeName(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case nil:
		return "null"
	default:
		return "scalar"
	}
}
