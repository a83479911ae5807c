package inspect

import (
	"reflect"
	"testing"
)

func sampleTree() interface{} {
	return map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"sku": "A1", "qty": int64(2)},
			map[string]interface{}{"sku": "B2", "qty": int64(5)},
		},
		"meta": map[string]interface{}{
			"owner": map[string]interface{}{"id": int64(7)},
		},
	}
}

func TestEvaluateFieldPath(t *testing.T) {
	v, ferr := Evaluate(sampleTree(), "$.meta.owner.id")
	if ferr != nil {
		t.Fatalf("unexpected error: %+v", ferr)
	}
	if v != int64(7) {
		t.Errorf("got %v, want 7", v)
	}
}

func TestEvaluateIndexPath(t *testing.T) {
	v, ferr := Evaluate(sampleTree(), "$.items[0].sku")
	if ferr != nil {
		t.Fatalf("unexpected error: %+v", ferr)
	}
	if v != "A1" {
		t.Errorf("got %v, want A1", v)
	}
}

func TestEvaluateWildcardPath(t *testing.T) {
	v, ferr := Evaluate(sampleTree(), "$.items[*].sku")
	if ferr != nil {
		t.Fatalf("unexpected error: %+v", ferr)
	}
	want := []interface{}{"A1", "B2"}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %v, want %v", v, want)
	}
}

func TestEvaluateRecursivePath(t *testing.T) {
	v, ferr := Evaluate(sampleTree(), "$..sku")
	if ferr != nil {
		t.Fatalf("unexpected error: %+v", ferr)
	}
	want := []interface{}{"A1", "B2"}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %v, want %v", v, want)
	}
}

func TestEvaluateMissingFieldReturnsDiagnostic(t *testing.T) {
	_, ferr := Evaluate(sampleTree(), "$.nope")
	if ferr == nil {
		t.Fatalf("expected a FilterError for a missing field")
	}
	if ferr.Error == "" {
		t.Errorf("expected a non-empty error message")
	}
	if len(ferr.AvailableKeys) == 0 {
		t.Errorf("expected available_keys to be populated")
	}
}

func TestEvaluateIndexOutOfRange(t *testing.T) {
	_, ferr := Evaluate(sampleTree(), "$.items[9]")
	if ferr == nil {
		t.Fatalf("expected a FilterError for an out-of-range index")
	}
}

func TestEvaluateMalformedExpression(t *testing.T) {
	_, ferr := Evaluate(sampleTree(), "items.sku")
	if ferr == nil {
		t.Fatalf("expected a FilterError for an expression missing the $ root")
	}
}

func TestNavigablePathsRespectsLimit(t *testing.T) {
	paths := NavigablePaths(sampleTree(), 3)
	if len(paths) > 3 {
		t.Fatalf("got %d paths, want at most 3", len(paths))
	}
}
