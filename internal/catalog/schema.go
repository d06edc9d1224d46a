// ABOUTME: JSON-schema subset used to describe tool inputs.
// ABOUTME: Keeps property declaration order so tools/list output is stable.

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Property types accepted in an input schema.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
)

// Property describes one named argument of a tool.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// String returns a string property.
func String(description string) Property {
	return Property{Type: TypeString, Description: description}
}

// Number returns a number property.
func Number(description string) Property {
	return Property{Type: TypeNumber, Description: description}
}

// Integer returns an integer property.
func Integer(description string) Property {
	return Property{Type: TypeInteger, Description: description}
}

// WithDefault returns a copy of p carrying a documented default value.
func (p Property) WithDefault(v any) Property {
	p.Default = v
	return p
}

// WithEnum returns a copy of p restricted to the given values.
func (p Property) WithEnum(values ...string) Property {
	p.Enum = slices.Clone(values)
	return p
}

// Field pairs a property with its name for ordered schema construction.
type Field struct {
	Name     string
	Property Property
}

// F is shorthand for building a Field.
func F(name string, p Property) Field {
	return Field{Name: name, Property: p}
}

// Schema is an object schema with ordered properties.
type Schema struct {
	Fields   []Field
	Required []string
}

// Object builds a schema from fields in declaration order.
func Object(fields ...Field) Schema {
	return Schema{Fields: slices.Clone(fields)}
}

// Require returns a copy of s with the given fields marked as required.
func (s Schema) Require(names ...string) Schema {
	s.Fields = slices.Clone(s.Fields)
	s.Required = append(slices.Clone(s.Required), names...)
	return s
}

// Property looks up a property by name.
func (s Schema) Property(name string) (Property, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Property, true
		}
	}
	return Property{}, false
}

// IsRequired reports whether name is in the required set.
func (s Schema) IsRequired(name string) bool {
	return slices.Contains(s.Required, name)
}

func (s Schema) clone() Schema {
	fields := slices.Clone(s.Fields)
	for i := range fields {
		fields[i].Property.Enum = slices.Clone(fields[i].Property.Enum)
	}
	return Schema{Fields: fields, Required: slices.Clone(s.Required)}
}

func (s Schema) validate() error {
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: empty property name", ErrInvalidSchema)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate property %q", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = true

		switch f.Property.Type {
		case TypeString, TypeNumber, TypeInteger:
		default:
			return fmt.Errorf("%w: property %q has unsupported type %q", ErrInvalidSchema, f.Name, f.Property.Type)
		}
		if len(f.Property.Enum) > 0 && f.Property.Type != TypeString {
			return fmt.Errorf("%w: enum on non-string property %q", ErrInvalidSchema, f.Name)
		}
	}
	for _, name := range s.Required {
		if !seen[name] {
			return fmt.Errorf("%w: required field %q is not a declared property", ErrInvalidSchema, name)
		}
	}
	return nil
}

// MarshalJSON writes {"type":"object","properties":{...},"required":[...]}
// with properties in declaration order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"object","properties":{`)
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Property)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	if len(s.Required) > 0 {
		req, err := json.Marshal(s.Required)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"required":`)
		buf.Write(req)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object schema, preserving property order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       string          `json:"type"`
		Properties json.RawMessage `json:"properties"`
		Required   []string        `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type != "" && raw.Type != "object" {
		return fmt.Errorf("%w: schema type %q, want object", ErrInvalidSchema, raw.Type)
	}

	*s = Schema{Required: raw.Required}
	if len(raw.Properties) == 0 || string(raw.Properties) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Properties))
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: unexpected token %v", ErrInvalidSchema, tok)
		}
		var p Property
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		s.Fields = append(s.Fields, Field{Name: name, Property: p})
	}
	return nil
}
