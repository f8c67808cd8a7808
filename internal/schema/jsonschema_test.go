package schema

import (
	"encoding/json"
	"testing"

	jsonschema "charm.land/fantasy/schema"
	"github.com/google/go-cmp/cmp"
)

func TestJSONSchema(t *testing.T) {
	doc := trendsSchema().JSONSchema()

	if doc.Type != "object" {
		t.Fatalf("Type = %q, want object", doc.Type)
	}
	if diff := cmp.Diff([]string{"trends", "overallSummary"}, doc.Required); diff != "" {
		t.Errorf("Required mismatch (-want +got):\n%s", diff)
	}

	trends := doc.Properties["trends"]
	if trends == nil || trends.Type != "array" || trends.Items == nil {
		t.Fatalf("trends property = %+v", trends)
	}
	trend := trends.Items.Properties["trend"]
	if trend == nil || trend.Type != "string" {
		t.Fatalf("trend property = %+v", trend)
	}
	if diff := cmp.Diff([]any{"increasing", "decreasing", "stable"}, trend.Enum); diff != "" {
		t.Errorf("Enum mismatch (-want +got):\n%s", diff)
	}
	if got := trends.Items.Properties["caseCount"].Type; got != "integer" {
		t.Errorf("caseCount type = %q", got)
	}
}

func TestFromJSONSchema(t *testing.T) {
	raw := `{
  "type": "object",
  "description": "Triage input",
  "properties": {
    "symptoms": {"type": "string", "description": "Reported symptoms"},
    "severity": {"type": "string", "enum": ["mild", "severe"]},
    "days": {"type": "integer"},
    "vitals": {
      "type": "object",
      "properties": {"temp": {"type": "number"}},
      "required": ["temp"]
    },
    "tags": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["symptoms", "severity"]
}`
	var doc jsonschema.Schema
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatal(err)
	}

	s, err := FromJSONSchema("TriageInput", doc)
	if err != nil {
		t.Fatalf("FromJSONSchema: %v", err)
	}

	want := &Schema{
		Name:        "TriageInput",
		Description: "Triage input",
		Fields: []Field{
			{Name: "days", Kind: KindInteger},
			{Name: "severity", Kind: KindEnum, Required: true, Enum: []string{"mild", "severe"}},
			{Name: "symptoms", Kind: KindString, Description: "Reported symptoms", Required: true},
			{Name: "tags", Kind: KindArray, Items: &Field{Kind: KindString}},
			{Name: "vitals", Kind: KindObject, Fields: []Field{{Name: "temp", Kind: KindNumber, Required: true}}},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}

	if err := Validate(map[string]any{"symptoms": "cough", "severity": "moderate"}, s); err == nil {
		t.Error("expected converted enum to reject unknown value")
	}
}

func TestFromJSONSchema_Errors(t *testing.T) {
	if _, err := FromJSONSchema("x", jsonschema.Schema{Type: "array"}); err == nil {
		t.Error("expected error for non-object top level")
	}

	doc := jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{"x": {Type: "null"}},
	}
	if _, err := FromJSONSchema("x", doc); err == nil {
		t.Error("expected error for unsupported type")
	}
}
