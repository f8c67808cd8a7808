package flow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/medportal/medassist/internal/model"
	"github.com/medportal/medassist/internal/schema"
)

const summaryPrompt = `---
name: visitSummary
description: Summarize a clinic visit note
version: "1.2"
---

Summarize this visit note for {{ patientName }}:

{{note}}
`

const summaryInput = `{
  "type": "object",
  "properties": {
    "patientName": {"type": "string"},
    "note": {"type": "string", "description": "Free-text visit note"}
  },
  "required": ["patientName", "note"]
}`

const summaryOutput = `{
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "urgency": {"type": "string", "enum": ["routine", "soon", "urgent"]}
  },
  "required": ["summary", "urgency"]
}`

func writeFlowPackage(t *testing.T, dir, name, promptFile, input, output string) string {
	t.Helper()
	pkg := filepath.Join(dir, name)
	if err := os.MkdirAll(pkg, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		PromptFile:       promptFile,
		InputSchemaFile:  input,
		OutputSchemaFile: output,
	}
	for file, content := range files {
		if content == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(pkg, file), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return pkg
}

func TestParsePromptFile(t *testing.T) {
	fm, body, err := ParsePromptFile([]byte(summaryPrompt))
	if err != nil {
		t.Fatalf("ParsePromptFile: %v", err)
	}
	if fm.Name != "visitSummary" {
		t.Errorf("Name = %q", fm.Name)
	}
	if fm.Version != "1.2.0" {
		t.Errorf("Version = %q, want normalized 1.2.0", fm.Version)
	}
	if body != "Summarize this visit note for {{ patientName }}:\n\n{{note}}" {
		t.Errorf("body = %q", body)
	}
}

func TestParsePromptFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "no frontmatter", content: "Just a prompt {{x}}", want: ErrNoFrontmatter},
		{name: "unterminated", content: "---\nname: a\ndescription: b\n", want: ErrNoFrontmatter},
		{name: "missing name", content: "---\ndescription: b\n---\nbody", want: ErrMissingName},
		{name: "missing description", content: "---\nname: a\n---\nbody", want: ErrMissingDesc},
		{name: "empty body", content: "---\nname: a\ndescription: b\n---\n\n  \n", want: ErrEmptyTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParsePromptFile([]byte(tt.content))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParsePromptFile_InvalidVersion(t *testing.T) {
	_, _, err := ParsePromptFile([]byte("---\nname: a\ndescription: b\nversion: banana\n---\nbody"))
	if err == nil {
		t.Fatal("expected invalid version error")
	}
}

func TestParsePromptFile_CRLF(t *testing.T) {
	content := "---\r\nname: a\r\ndescription: b\r\n---\r\nHello {{x}}\r\n"
	fm, body, err := ParsePromptFile([]byte(content))
	if err != nil {
		t.Fatalf("ParsePromptFile: %v", err)
	}
	if fm.Name != "a" || body != "Hello {{x}}" {
		t.Errorf("got %+v, %q", fm, body)
	}
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()
	writeFlowPackage(t, tmpDir, "visit-summary", summaryPrompt, summaryInput, summaryOutput)

	// Package without an output schema is skipped.
	writeFlowPackage(t, tmpDir, "half-done", "---\nname: halfDone\ndescription: x\n---\n{{a}}", summaryInput, "")

	// Plain files at the top level are not packages.
	if err := os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	defs, err := Discover([]string{tmpDir, filepath.Join(tmpDir, "does-not-exist")})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("Discover found %d flows, want 1", len(defs))
	}

	def := defs[0]
	if def.Name != "visitSummary" || def.Description != "Summarize a clinic visit note" {
		t.Errorf("def = %+v", def)
	}
	if def.Path != filepath.Join(tmpDir, "visit-summary") {
		t.Errorf("Path = %q", def.Path)
	}

	note, ok := def.Input.Field("note")
	if !ok || !note.Required || note.Kind != schema.KindString {
		t.Errorf("note field = %+v", note)
	}
	urgency, ok := def.Output.Field("urgency")
	if !ok || urgency.Kind != schema.KindEnum || len(urgency.Enum) != 3 {
		t.Errorf("urgency field = %+v", urgency)
	}
}

func TestDiscover_FirstNameWins(t *testing.T) {
	project := t.TempDir()
	user := t.TempDir()

	writeFlowPackage(t, project, "a", summaryPrompt, summaryInput, summaryOutput)
	other := `---
name: visitSummary
description: Shadowed copy
---
{{note}}`
	writeFlowPackage(t, user, "b", other, summaryInput, summaryOutput)

	defs, err := Discover([]string{project, user})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("got %d flows, want 1", len(defs))
	}
	if defs[0].Description != "Summarize a clinic visit note" {
		t.Errorf("expected the first directory to win, got %q", defs[0].Description)
	}
}

func TestDiscoverOne_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	badSchema := writeFlowPackage(t, tmpDir, "bad-schema", summaryPrompt, `{"type": "object", "properties": {"x": {"type": 12}}}`, summaryOutput)
	if _, err := DiscoverOne(badSchema); err == nil {
		t.Error("expected error for schema that does not compile")
	}

	notObject := writeFlowPackage(t, tmpDir, "not-object", summaryPrompt, `{"type": "string"}`, summaryOutput)
	if _, err := DiscoverOne(notObject); err == nil {
		t.Error("expected error for non-object input schema")
	}

	file := filepath.Join(tmpDir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DiscoverOne(file); err == nil {
		t.Error("expected error for a file path")
	}
}

func TestDiscover_RunsEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	writeFlowPackage(t, tmpDir, "visit-summary", summaryPrompt, summaryInput, summaryOutput)

	defs, err := Discover([]string{tmpDir})
	if err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry()
	for _, def := range defs {
		reg.MustRegister(def)
	}

	var seen string
	m := model.Func(func(ctx context.Context, req model.Request) (*model.Response, error) {
		seen = req.Prompt
		return &model.Response{Raw: []byte(`{"summary": "Follow up in two weeks.", "urgency": "routine"}`)}, nil
	})

	out, err := NewExecutor(reg, m).Invoke(context.Background(), "visitSummary", map[string]any{
		"patientName": "R. Sharma",
		"note":        "Mild fever, resolved.",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["urgency"] != "routine" {
		t.Errorf("out = %v", out)
	}
	if seen != "Summarize this visit note for R. Sharma:\n\nMild fever, resolved." {
		t.Errorf("prompt = %q", seen)
	}
}

func TestSourceFromPath(t *testing.T) {
	tests := []struct {
		dir  string
		want Source
	}{
		{"/home/a/.local/share/medassist/flows", SourceInstalled},
		{"/home/a/.config/medassist/flows", SourceUser},
		{"/home/a/clinic/.medassist/flows", SourceProject},
		{"/srv/flows", SourceUser},
	}
	for _, tt := range tests {
		if got := sourceFromPath(tt.dir); got != tt.want {
			t.Errorf("sourceFromPath(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

const intakePrompt = `---
name: symptomIntake
description: Score a reported symptom
---
Score this symptom: {{symptom}}
`

const intakeInput = `{
  "type": "object",
  "properties": {"symptom": {"type": "string", "minLength": 3}},
  "required": ["symptom"]
}`

const intakeOutput = `{
  "type": "object",
  "properties": {
    "score": {"type": "integer", "maximum": 10},
    "tags": {"type": "array", "items": {"type": "string"}, "maxItems": 1}
  },
  "required": ["score"],
  "additionalProperties": false
}`

func TestDiscoverOne_EnforcesDocumentConstraints(t *testing.T) {
	dir := writeFlowPackage(t, t.TempDir(), "intake", intakePrompt, intakeInput, intakeOutput)
	def, err := DiscoverOne(dir)
	if err != nil {
		t.Fatalf("DiscoverOne: %v", err)
	}
	reg := NewRegistry()
	reg.MustRegister(*def)

	t.Run("input below minLength", func(t *testing.T) {
		m := &stubModel{raw: `{"score": 1}`}
		_, err := NewExecutor(reg, m).Invoke(context.Background(), "symptomIntake", map[string]any{"symptom": "x"})
		var fe *Error
		if !errors.As(err, &fe) || !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if fe.Path != "symptom" {
			t.Errorf("Path = %q, want symptom", fe.Path)
		}
		if n := m.calls.Load(); n != 0 {
			t.Errorf("model called %d times for invalid input", n)
		}
	})

	outputs := []struct {
		name     string
		raw      string
		wantPath string
	}{
		{"above maximum", `{"score": 99}`, "score"},
		{"too many items", `{"score": 2, "tags": ["a", "b", "c"]}`, "tags"},
		{"extra property", `{"score": 2, "extra": true}`, "extra"},
		{"several failures", `{"score": 99, "tags": ["a", "b", "c"], "extra": true}`, "extra"},
	}
	for _, tt := range outputs {
		t.Run(tt.name, func(t *testing.T) {
			m := &stubModel{raw: tt.raw}
			_, err := NewExecutor(reg, m).Invoke(context.Background(), "symptomIntake", map[string]any{"symptom": "cough"})
			var fe *Error
			if !errors.As(err, &fe) || !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("expected ErrSchemaMismatch, got %v", err)
			}
			if fe.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", fe.Path, tt.wantPath)
			}
		})
	}

	m := &stubModel{raw: `{"score": 4, "tags": ["cough"]}`}
	out, err := NewExecutor(reg, m).Invoke(context.Background(), "symptomIntake", map[string]any{"symptom": "cough"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["score"] != float64(4) {
		t.Errorf("out = %v", out)
	}
}
