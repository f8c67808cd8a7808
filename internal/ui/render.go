package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/medportal/medassist/internal/schema"
)

const maxCell = 60

// RenderOutput renders a validated flow output in schema field order.
// Scalars become a key/value table, arrays of objects a table with one
// column per item field, and arrays of scalars a bullet list.
func RenderOutput(out map[string]any, s *schema.Schema) string {
	var b strings.Builder
	var scalars [][]string

	flush := func() {
		if len(scalars) > 0 {
			b.WriteString(keyValueTable(scalars))
			b.WriteString("\n")
			scalars = nil
		}
	}

	for _, f := range s.Fields {
		v, ok := out[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case schema.KindArray:
			items, _ := v.([]any)
			if len(items) == 0 {
				continue
			}
			flush()
			b.WriteString(HeaderStyle.Render(formatKeyName(f.Name)))
			b.WriteString("\n")
			if f.Items != nil && f.Items.Kind == schema.KindObject {
				b.WriteString(objectTable(items, f.Items.Fields))
			} else {
				b.WriteString(bulletList(items))
			}
			b.WriteString("\n")
		case schema.KindObject:
			nested, _ := v.(map[string]any)
			flush()
			b.WriteString(HeaderStyle.Render(formatKeyName(f.Name)))
			b.WriteString("\n")
			b.WriteString(RenderOutput(nested, &schema.Schema{Fields: f.Fields}))
			b.WriteString("\n")
		default:
			scalars = append(scalars, []string{formatKeyName(f.Name), FormatValue(v)})
		}
	}
	flush()

	return strings.TrimSpace(b.String())
}

func keyValueTable(rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1).Width(maxCell)
		})
	for _, row := range rows {
		t.Row(row...)
	}
	return t.Render()
}

func objectTable(items []any, fields []schema.Field) string {
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = formatKeyName(f.Name)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
		})

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = FormatValue(obj[f.Name])
		}
		t.Row(row...)
	}
	return t.Render()
}

func bulletList(items []any) string {
	values := make([]any, len(items))
	for i, item := range items {
		values[i] = FormatValue(item)
	}
	return list.New(values...).
		Enumerator(list.Bullet).
		EnumeratorStyle(lipgloss.NewStyle().Foreground(ColorPrimary)).
		String()
}

// formatKeyName turns camelCase and snake_case keys into Title Case.
func formatKeyName(key string) string {
	var words []string
	var cur strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
			continue
		case r >= 'A' && r <= 'Z' && i > 0 && cur.Len() > 0:
			words = append(words, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatValue renders a decoded JSON value on one line.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return truncate(val, maxCell)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		if len(val) <= 3 {
			strs := make([]string, len(val))
			for i, item := range val {
				strs[i] = FormatValue(item)
			}
			return strings.Join(strs, ", ")
		}
		return fmt.Sprintf("[%d items]", len(val))
	case map[string]any:
		return "{...}"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
