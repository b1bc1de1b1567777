package mcp

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// jsonSchema is the subset of JSON Schema published for tool inputs.
type jsonSchema struct {
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Properties           map[string]*jsonSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
	Items                *jsonSchema            `json:"items,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Format               string                 `json:"format,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	MinLength            *int                   `json:"minLength,omitempty"`
	MaxLength            *int                   `json:"maxLength,omitempty"`
	MaxItems             *int                   `json:"maxItems,omitempty"`
}

// schemaFor derives the input schema of a tool from its input struct. It
// reads the json tag for the property name, desc for the description and
// the validator tag for required, oneof, min, max and datetime, so the
// published schema and the validation rules cannot drift apart.
func schemaFor(t reflect.Type) (json.RawMessage, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tool input %s is not a struct", t)
	}

	closed := false
	root := &jsonSchema{
		Type:                 "object",
		Properties:           map[string]*jsonSchema{},
		AdditionalProperties: &closed,
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}

		prop, err := typeSchema(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		prop.Description = f.Tag.Get("desc")

		required := applyRules(prop, f.Tag.Get("validate"))
		if required {
			root.Required = append(root.Required, name)
		}
		root.Properties[name] = prop
	}

	return json.Marshal(root)
}

func typeSchema(t reflect.Type) (*jsonSchema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return &jsonSchema{Type: "string"}, nil
	case reflect.Bool:
		return &jsonSchema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &jsonSchema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &jsonSchema{Type: "number"}, nil
	case reflect.Slice, reflect.Array:
		items, err := typeSchema(t.Elem())
		if err != nil {
			return nil, err
		}
		return &jsonSchema{Type: "array", Items: items}, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

// applyRules copies validator rules onto s and reports whether the field
// is required. Rules after "dive" apply to array items.
func applyRules(s *jsonSchema, tag string) (required bool) {
	if tag == "" {
		return false
	}
	target := s
	for _, rule := range strings.Split(tag, ",") {
		key, val, _ := strings.Cut(rule, "=")
		switch key {
		case "dive":
			if s.Items == nil {
				return required
			}
			target = s.Items
		case "required":
			if target == s {
				required = true
			}
		case "oneof":
			target.Enum = strings.Fields(val)
		case "datetime":
			if val == "2006-01-02" {
				target.Format = "date"
			}
		case "min", "max":
			n, err := strconv.ParseFloat(val, 64)
			if err != nil {
				continue
			}
			setBound(target, key, n)
		}
	}
	return required
}

func setBound(s *jsonSchema, key string, n float64) {
	switch s.Type {
	case "integer", "number":
		if key == "min" {
			s.Minimum = &n
		} else {
			s.Maximum = &n
		}
	case "string":
		v := int(n)
		if key == "min" {
			s.MinLength = &v
		} else {
			s.MaxLength = &v
		}
	case "array":
		if key == "max" {
			v := int(n)
			s.MaxItems = &v
		}
	}
}
