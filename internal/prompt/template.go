// Package prompt renders instruction templates with named placeholders.
//
// A placeholder is {{name}}, {{ name }} or the unescaped {{{name}}} form.
// Names are identifiers; there are no helpers, conditionals or loops.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRE = regexp.MustCompile(`\{\{\{?\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}?\}\}`)

// MissingError is returned when a placeholder has no matching variable.
type MissingError struct {
	Placeholder string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("placeholder {{%s}} has no matching input field", e.Placeholder)
}

// Placeholders returns the distinct placeholder names in tmpl in the order
// they first appear.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRE.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render substitutes every placeholder in tmpl with the string form of the
// matching entry in vars. The first placeholder without an entry fails the
// render with a *MissingError.
func Render(tmpl string, vars map[string]any) (string, error) {
	for _, name := range Placeholders(tmpl) {
		if v, ok := vars[name]; !ok || v == nil {
			return "", &MissingError{Placeholder: name}
		}
	}

	var renderErr error
	out := placeholderRE.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderRE.FindStringSubmatch(match)[1]
		s, err := Stringify(vars[name])
		if err != nil && renderErr == nil {
			renderErr = fmt.Errorf("render {{%s}}: %w", name, err)
		}
		return s
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}

// Stringify returns the representation of v used inside prompts: strings
// verbatim, whole numbers without an exponent, everything else compact
// JSON.
func Stringify(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case json.Number:
		return x.String(), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
