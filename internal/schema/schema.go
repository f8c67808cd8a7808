// Package schema describes and validates the record shapes exchanged with
// AI flows.
//
// A Schema is a list of field descriptors. The same descriptor drives local
// validation of caller input, validation of untrusted model output, and the
// JSON Schema document sent to the model as a response-shape constraint.
package schema

import kaptinlin "github.com/kaptinlin/jsonschema"

// Kind is the primitive kind of a field.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindArray   Kind = "array"
	KindObject  Kind = "object"

	// KindMedia is a string holding a data: URI (an image or document).
	KindMedia Kind = "media"
)

// Field describes one named field of a record.
type Field struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool

	Enum   []string // allowed values, KindEnum only
	Items  *Field   // element descriptor, KindArray only
	Fields []Field  // nested fields, KindObject only
}

// Schema is a named record shape.
type Schema struct {
	Name        string
	Description string
	Fields      []Field

	// Constraint is the compiled source document of a schema loaded from
	// JSON Schema. It enforces the keywords the field descriptors do not
	// model (minLength, maximum, maxItems, additionalProperties, ...).
	Constraint *kaptinlin.Schema
}

// New creates a schema from its fields.
func New(name, description string, fields ...Field) *Schema {
	return &Schema{Name: name, Description: description, Fields: fields}
}

// Field returns the top-level field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MediaFields returns the names of the top-level media fields in
// declaration order.
func (s *Schema) MediaFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Kind == KindMedia {
			names = append(names, f.Name)
		}
	}
	return names
}

// Require returns a copy of the field marked as required.
func (f Field) Require() Field {
	f.Required = true
	return f
}

// String declares a string field.
func String(name, description string) Field {
	return Field{Name: name, Kind: KindString, Description: description}
}

// Number declares a numeric field.
func Number(name, description string) Field {
	return Field{Name: name, Kind: KindNumber, Description: description}
}

// Integer declares a whole-number field.
func Integer(name, description string) Field {
	return Field{Name: name, Kind: KindInteger, Description: description}
}

// Boolean declares a boolean field.
func Boolean(name, description string) Field {
	return Field{Name: name, Kind: KindBoolean, Description: description}
}

// Enum declares a string field restricted to the given values.
func Enum(name, description string, values ...string) Field {
	return Field{Name: name, Kind: KindEnum, Description: description, Enum: values}
}

// Media declares a data: URI field.
func Media(name, description string) Field {
	return Field{Name: name, Kind: KindMedia, Description: description}
}

// Array declares a list whose elements match items. The element name is
// ignored.
func Array(name, description string, items Field) Field {
	return Field{Name: name, Kind: KindArray, Description: description, Items: &items}
}

// Object declares a nested record.
func Object(name, description string, fields ...Field) Field {
	return Field{Name: name, Kind: KindObject, Description: description, Fields: fields}
}
