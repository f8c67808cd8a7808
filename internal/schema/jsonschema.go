package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"

	jsonschema "charm.land/fantasy/schema"
	kaptinlin "github.com/kaptinlin/jsonschema"
)

// JSONSchema renders s as a JSON Schema object document.
func (s *Schema) JSONSchema() jsonschema.Schema {
	props, required := objectProperties(s.Fields)
	return jsonschema.Schema{
		Type:        "object",
		Description: s.Description,
		Properties:  props,
		Required:    required,
	}
}

func objectProperties(fields []Field) (map[string]*jsonschema.Schema, []string) {
	props := make(map[string]*jsonschema.Schema, len(fields))
	var required []string
	for _, f := range fields {
		prop := fieldJSONSchema(f)
		props[f.Name] = &prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return props, required
}

func fieldJSONSchema(f Field) jsonschema.Schema {
	out := jsonschema.Schema{Description: f.Description}
	switch f.Kind {
	case KindEnum:
		out.Type = "string"
		for _, v := range f.Enum {
			out.Enum = append(out.Enum, v)
		}
	case KindMedia:
		out.Type = "string"
		if out.Description == "" {
			out.Description = "data: URI"
		}
	case KindArray:
		out.Type = "array"
		if f.Items != nil {
			items := fieldJSONSchema(*f.Items)
			out.Items = &items
		}
	case KindObject:
		out.Type = "object"
		out.Properties, out.Required = objectProperties(f.Fields)
	default:
		out.Type = string(f.Kind)
	}
	return out
}

// FromJSONSchema converts a JSON Schema object document into a Schema.
// Properties are ordered by name since a decoded document carries no key
// order. A string property with an enum becomes an enum field.
func FromJSONSchema(name string, doc jsonschema.Schema) (*Schema, error) {
	return fromJSONSchema(name, doc, nil)
}

// ParseJSONSchema compiles a JSON Schema document and converts it into a
// Schema whose fields follow the document's property order. The compiled
// document is kept as the schema's Constraint.
func ParseJSONSchema(name string, data []byte) (*Schema, error) {
	compiled, err := kaptinlin.NewCompiler().Compile(data)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	var doc jsonschema.Schema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	order := make(map[string][]string)
	if err := walkKeys(json.NewDecoder(bytes.NewReader(data)), "", order); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	s, err := fromJSONSchema(name, doc, order)
	if err != nil {
		return nil, err
	}
	s.Constraint = compiled
	return s, nil
}

func fromJSONSchema(name string, doc jsonschema.Schema, order map[string][]string) (*Schema, error) {
	if doc.Type != "object" {
		return nil, fmt.Errorf("schema %s: top-level type must be object, got %q", name, doc.Type)
	}
	fields, err := fieldsFromProperties(doc.Properties, doc.Required, name, "", order)
	if err != nil {
		return nil, err
	}
	return &Schema{Name: name, Description: doc.Description, Fields: fields}, nil
}

// walkKeys records the key order of every object in the document, keyed by
// the object's JSON pointer.
func walkKeys(dec *json.Decoder, ptr string, order map[string][]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch delim {
	case '{':
		var keys []string
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := tok.(string)
			keys = append(keys, key)
			if err := walkKeys(dec, ptr+"/"+key, order); err != nil {
				return err
			}
		}
		order[ptr] = keys
	case '[':
		for i := 0; dec.More(); i++ {
			if err := walkKeys(dec, ptr+"/"+strconv.Itoa(i), order); err != nil {
				return err
			}
		}
	}
	_, err = dec.Token()
	return err
}

// propertyNames lists the names in props in document order when known,
// falling back to name order.
func propertyNames(props map[string]*jsonschema.Schema, declared []string) []string {
	names := make([]string, 0, len(props))
	for _, n := range declared {
		if _, ok := props[n]; ok && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	if len(names) == len(props) {
		return names
	}

	names = names[:0]
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func fieldsFromProperties(props map[string]*jsonschema.Schema, required []string, path, ptr string, order map[string][]string) ([]Field, error) {
	names := propertyNames(props, order[ptr+"/properties"])

	fields := make([]Field, 0, len(names))
	for _, n := range names {
		f, err := fieldFromJSONSchema(n, props[n], joinPath(path, n), ptr+"/properties/"+n, order)
		if err != nil {
			return nil, err
		}
		f.Required = slices.Contains(required, n)
		fields = append(fields, f)
	}
	return fields, nil
}

func fieldFromJSONSchema(name string, doc *jsonschema.Schema, path, ptr string, order map[string][]string) (Field, error) {
	if doc == nil {
		return Field{}, fmt.Errorf("schema %s: empty property", path)
	}
	f := Field{Name: name, Description: doc.Description}
	switch doc.Type {
	case "string":
		f.Kind = KindString
		if len(doc.Enum) > 0 {
			f.Kind = KindEnum
			for _, v := range doc.Enum {
				s, ok := v.(string)
				if !ok {
					return Field{}, fmt.Errorf("schema %s: enum value %v is not a string", path, v)
				}
				f.Enum = append(f.Enum, s)
			}
		}
	case "number":
		f.Kind = KindNumber
	case "integer":
		f.Kind = KindInteger
	case "boolean":
		f.Kind = KindBoolean
	case "array":
		f.Kind = KindArray
		if doc.Items != nil {
			items, err := fieldFromJSONSchema("", doc.Items, path+"[]", ptr+"/items", order)
			if err != nil {
				return Field{}, err
			}
			f.Items = &items
		}
	case "object":
		f.Kind = KindObject
		nested, err := fieldsFromProperties(doc.Properties, doc.Required, path, ptr, order)
		if err != nil {
			return Field{}, err
		}
		f.Fields = nested
	default:
		return Field{}, fmt.Errorf("schema %s: unsupported type %q", path, doc.Type)
	}
	return f, nil
}
