package inspect

import (
	"encoding/json"
	"testing"

	"github.com/wallter/smart-xdebug-mcp/internal/dbgpcodec"
)

func TestSummarizeCapsPreviewAtThree(t *testing.T) {
	vi := &dbgpcodec.VariableInfo{
		Type: "array",
		Children: []*dbgpcodec.VariableInfo{
			{Name: "0", Type: "int", Value: int64(1)},
			{Name: "1", Type: "int", Value: int64(2)},
			{Name: "2", Type: "int", Value: int64(3)},
			{Name: "3", Type: "int", Value: int64(4)},
		},
	}
	s := Summarize(vi)
	if s.ChildrenCount != 4 {
		t.Errorf("ChildrenCount = %d, want 4", s.ChildrenCount)
	}
	if len(s.Keys) != 4 {
		t.Errorf("len(Keys) = %d, want 4", len(s.Keys))
	}
	if len(s.Preview) != 3 {
		t.Fatalf("len(Preview) = %d, want 3 (capped)", len(s.Preview))
	}
}

func TestSummarizePreviewTruncatesLongValues(t *testing.T) {
	longValue := ""
	for i := 0; i < 100; i++ {
		longValue += "x"
	}
	vi := &dbgpcodec.VariableInfo{
		Type: "object",
		Children: []*dbgpcodec.VariableInfo{
			{Name: "big", Type: "string", Value: longValue},
		},
	}
	s := Summarize(vi)
	if len(s.Preview) != 1 {
		t.Fatalf("expected one preview entry")
	}
	if len(s.Preview[0].Value) > 60 { // "(string) " prefix plus 50 chars
		t.Errorf("preview value not truncated: %q (len %d)", s.Preview[0].Value, len(s.Preview[0].Value))
	}
}

func TestPreviewListMarshalsAsObject(t *testing.T) {
	p := PreviewList{{Name: "a", Value: "(int) 1"}, {Name: "b", Value: "(string) hi"}}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["a"] != "(int) 1" || m["b"] != "(string) hi" {
		t.Errorf("got %v", m)
	}
}
