package prompt

import (
	"errors"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		vars map[string]any
		want string
	}{
		{
			name: "simple",
			tmpl: "Trends for {{region}} over {{timeframe}}.",
			vars: map[string]any{"region": "India", "timeframe": "last 30 days"},
			want: "Trends for India over last 30 days.",
		},
		{
			name: "spaces and triple braces",
			tmpl: "{{ region }} / {{{region}}}",
			vars: map[string]any{"region": "Kerala"},
			want: "Kerala / Kerala",
		},
		{
			name: "numbers and bools",
			tmpl: "{{age}} {{weight}} {{big}} {{pregnant}}",
			vars: map[string]any{"age": float64(42), "weight": 61.5, "big": float64(1e7), "pregnant": false},
			want: "42 61.5 10000000 false",
		},
		{
			name: "json for composites",
			tmpl: "{{tags}} {{vitals}}",
			vars: map[string]any{"tags": []any{"a", "b"}, "vitals": map[string]any{"temp": 38}},
			want: `["a","b"] {"temp":38}`,
		},
		{
			name: "no placeholders",
			tmpl: "Summarize.",
			vars: nil,
			want: "Summarize.",
		},
		{
			name: "unused vars ignored",
			tmpl: "{{a}}",
			vars: map[string]any{"a": "x", "b": "y"},
			want: "x",
		},
		{
			name: "value containing braces is not re-expanded",
			tmpl: "{{a}} {{b}}",
			vars: map[string]any{"a": "{{b}}", "b": "B"},
			want: "{{b}} B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.vars)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_Missing(t *testing.T) {
	_, err := Render("{{region}} {{timeframe}}", map[string]any{"region": "India"})

	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingError, got %v", err)
	}
	if missing.Placeholder != "timeframe" {
		t.Errorf("Placeholder = %q, want timeframe", missing.Placeholder)
	}
	if !strings.Contains(err.Error(), "timeframe") {
		t.Errorf("error %q should name the placeholder", err)
	}

	if _, err := Render("{{x}}", map[string]any{"x": nil}); !errors.As(err, &missing) {
		t.Errorf("nil value should count as missing, got %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{{b}} {{a}} {{ b }} {{{c}}} {not} {{1bad}}")
	want := []string{"b", "a", "c"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
}
