package inspect

import (
	"reflect"
	"testing"

	"github.com/wallter/smart-xdebug-mcp/internal/dbgpcodec"
)

func TestToPlainScalar(t *testing.T) {
	vi := &dbgpcodec.VariableInfo{Type: "int", Value: int64(5)}
	if got := ToPlain(vi); got != int64(5) {
		t.Errorf("ToPlain(scalar) = %v", got)
	}
}

func TestToPlainArray(t *testing.T) {
	vi := &dbgpcodec.VariableInfo{
		Type: "array",
		Children: []*dbgpcodec.VariableInfo{
			{Name: "0", Type: "int", Value: int64(1)},
			{Name: "1", Type: "int", Value: int64(2)},
		},
	}
	got := ToPlain(vi)
	want := []interface{}{int64(1), int64(2)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToPlain(array) = %v, want %v", got, want)
	}
}

func TestToPlainObject(t *testing.T) {
	vi := &dbgpcodec.VariableInfo{
		Type: "object",
		Children: []*dbgpcodec.VariableInfo{
			{Name: "id", Type: "int", Value: int64(1)},
			{Name: "name", Type: "string", Value: "ok"},
		},
	}
	got := ToPlain(vi)
	want := map[string]interface{}{"id": int64(1), "name": "ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToPlain(object) = %v, want %v", got, want)
	}
}

func TestToPlainNestedArrayOfObjects(t *testing.T) {
	vi := &dbgpcodec.VariableInfo{
		Type: "array",
		Children: []*dbgpcodec.VariableInfo{
			{
				Name: "0",
				Type: "object",
				Children: []*dbgpcodec.VariableInfo{
					{Name: "sku", Type: "string", Value: "A1"},
				},
			},
		},
	}
	got := ToPlain(vi)
	want := []interface{}{map[string]interface{}{"sku": "A1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToPlain(nested) = %v, want %v", got, want)
	}
}
