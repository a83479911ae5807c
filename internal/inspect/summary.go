package inspect

import (
	"encoding/json"
	"fmt"

	"github.com/wallter/smart-xdebug-mcp/internal/dbgpcodec"
)

// PreviewEntry is one entry of a StructuralSummary's preview, keeping
// insertion order (DBGp child order) rather than a plain map.
type PreviewEntry struct {
	Name  string
	Value string
}

// PreviewList marshals as a JSON object keyed by entry name, per the
// tool contract's preview shape, while preserving DBGp child order
// internally.
type PreviewList []PreviewEntry

func (p PreviewList) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(p))
	for _, e := range p {
		m[e.Name] = e.Value
	}
	return json.Marshal(m)
}

// Structure is the default, budget-preserving shape returned when no
// filter is supplied.
type Structure struct {
	Type          string      `json:"type"`
	ClassName     string      `json:"classname,omitempty"`
	Keys          []string    `json:"keys"`
	ChildrenCount int         `json:"children_count"`
	Preview       PreviewList `json:"preview"`
}

// Summarize produces the structural summary for a VariableInfo.
// Scalar variables bypass the summary entirely; the caller should check
// len(vi.Children) == 0 and return vi.Value directly in that case.
func Summarize(vi *dbgpcodec.VariableInfo) Structure {
	s := Structure{
		Type:          vi.Type,
		ClassName:     vi.ClassName,
		ChildrenCount: len(vi.Children),
	}
	for _, c := range vi.Children {
		s.Keys = append(s.Keys, c.Name)
	}

	max := 3
	if len(vi.Children) < max {
		max = len(vi.Children)
	}
	for _, c := range vi.Children[:max] {
		s.Preview = append(s.Preview, PreviewEntry{Name: c.Name, Value: previewValue(c)})
	}
	return s
}

// previewValue renders "(type) <value-or-children-marker>", truncated to
// 50 characters, for one child in a structural summary's preview.
func previewValue(vi *dbgpcodec.VariableInfo) string {
	if len(vi.Children) > 0 {
		return fmt.Sprintf("(%s) [%d children]", vi.Type, len(vi.Children))
	}
	rendered := fmt.Sprintf("%v", vi.Value)
	if len(rendered) > 50 {
		rendered = rendered[:50]
	}
	return fmt.Sprintf("(%s) %s", vi.Type, rendered)
}
