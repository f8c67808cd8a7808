package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrMismatch is wrapped by every validation failure.
var ErrMismatch = errors.New("schema mismatch")

// MismatchError reports the first field that does not conform.
type MismatchError struct {
	Path    string   // e.g. "trends[1].trend"; empty for the record itself
	Reason  string   // deterministic description of the failure
	Allowed []string // allowed set, enum failures only
}

func (e *MismatchError) Error() string {
	msg := e.Reason
	if len(e.Allowed) > 0 {
		msg = fmt.Sprintf("%s (allowed: %s)", e.Reason, strings.Join(e.Allowed, ", "))
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrMismatch.Error(), msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMismatch.Error(), e.Path, msg)
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Validate checks value against s. The value is expected in decoded-JSON
// form (map[string]any, []any, string, float64, bool), although any Go
// numeric type and json.Number are accepted for numbers.
//
// Fields are checked in declaration order and array elements in index
// order; the first failure is returned as a *MismatchError. A value that
// conforms to the fields is then checked against s.Constraint, if set.
func Validate(value any, s *Schema) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return &MismatchError{Reason: fmt.Sprintf("expected object, got %s", describe(value))}
	}
	if err := validateFields(obj, s.Fields, ""); err != nil {
		return err
	}
	if s.Constraint != nil {
		return checkConstraint(obj, s.Constraint)
	}
	return nil
}

// ValidateJSON decodes data and validates it against s, returning the
// decoded record.
func ValidateJSON(data []byte, s *Schema) (map[string]any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if err := Validate(value, s); err != nil {
		return nil, err
	}
	return value.(map[string]any), nil
}

func validateFields(obj map[string]any, fields []Field, prefix string) error {
	for _, f := range fields {
		path := joinPath(prefix, f.Name)
		v, present := obj[f.Name]
		if !present || v == nil {
			if f.Required {
				return &MismatchError{Path: path, Reason: "required field missing"}
			}
			continue
		}
		if err := validateValue(v, f, path); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(v any, f Field, path string) error {
	switch f.Kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return typeMismatch(path, "string", v)
		}
	case KindMedia:
		s, ok := v.(string)
		if !ok {
			return typeMismatch(path, "data URI string", v)
		}
		if _, _, err := ParseDataURI(s); err != nil {
			return &MismatchError{Path: path, Reason: err.Error()}
		}
	case KindNumber:
		if _, ok := toFloat(v); !ok {
			return typeMismatch(path, "number", v)
		}
	case KindInteger:
		n, ok := toFloat(v)
		if !ok {
			return typeMismatch(path, "integer", v)
		}
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return &MismatchError{Path: path, Reason: fmt.Sprintf("expected integer, got %v", n)}
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return typeMismatch(path, "boolean", v)
		}
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return typeMismatch(path, "string", v)
		}
		if !slices.Contains(f.Enum, s) {
			return &MismatchError{
				Path:    path,
				Reason:  fmt.Sprintf("value %q not allowed", s),
				Allowed: slices.Clone(f.Enum),
			}
		}
	case KindArray:
		items, ok := v.([]any)
		if !ok {
			return typeMismatch(path, "array", v)
		}
		if f.Items == nil {
			return nil
		}
		for i, item := range items {
			itemPath := path + "[" + strconv.Itoa(i) + "]"
			if item == nil {
				return &MismatchError{Path: itemPath, Reason: "null array element"}
			}
			if err := validateValue(item, *f.Items, itemPath); err != nil {
				return err
			}
		}
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return typeMismatch(path, "object", v)
		}
		return validateFields(obj, f.Fields, path)
	default:
		return &MismatchError{Path: path, Reason: fmt.Sprintf("unknown field kind %q", f.Kind)}
	}
	return nil
}

func typeMismatch(path, want string, got any) *MismatchError {
	return &MismatchError{Path: path, Reason: fmt.Sprintf("expected %s, got %s", want, describe(got))}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// describe names the JSON kind of a decoded value for error messages.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
