// Package inspect converts a decoded VariableInfo tree into a plain
// structured value, then either evaluates a surgical path-filter
// expression against it or produces a structural summary that caps what
// gets pasted back to the agent.
package inspect

import (
	"github.com/wallter/smart-xdebug-mcp/internal/dbgpcodec"
)

// ToPlain converts a VariableInfo tree into arrays (array-typed),
// objects (object-typed, keyed by child name), or bare scalars (leaves).
func ToPlain(vi *dbgpcodec.VariableInfo) interface{} {
	if vi == nil {
		return nil
	}
	if len(vi.Children) == 0 {
		return vi.Value
	}
	if vi.Type == "array" {
		out := make([]interface{}, len(vi.Children))
		for i, c := range vi.Children {
			out[i] = ToPlain(c)
		}
		return out
	}
	out := make(map[string]interface{}, len(vi.Children))
	for _, c := range vi.Children {
		out[c.Name] = ToPlain(c)
	}
	return out
}
