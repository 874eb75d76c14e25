// Package validation checks candidate documents against field schemas
// and reports every violation found.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Field types understood by the engine.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
)

// Field describes a single field of a Schema.
type Field struct {
	Type     string
	Required bool
	Example  any
	// Format is a JSON schema format such as "email".
	Format string
	// Properties describes the children of an object field.
	Properties Schema
}

// Schema maps field names to their description.
type Schema map[string]Field

// Violation is a single failed constraint.
type Violation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// Validator validates candidates against a compiled Schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// Compile turns a Schema into a Validator.
func Compile(s Schema) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.jsonSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(s Schema) *Validator {
	v, err := Compile(s)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate returns the violations of candidate ordered by field and constraint.
// An empty result means the candidate is valid.
func (v *Validator) Validate(candidate any) ([]Violation, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(candidate))
	if err != nil {
		return nil, fmt.Errorf("failed to validate candidate: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, Violation{
			Field:      fieldName(e),
			Constraint: constraintName(e.Type()),
			Message:    e.Description(),
		})
	}
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Field != violations[j].Field {
			return violations[i].Field < violations[j].Field
		}

		return violations[i].Constraint < violations[j].Constraint
	})

	return violations, nil
}

func (s Schema) jsonSchema() map[string]any {
	required := make([]string, 0, len(s))
	properties := make(map[string]any, len(s))
	for name, f := range s {
		if f.Required {
			required = append(required, name)
		}
		properties[name] = f.jsonSchema()
	}
	sort.Strings(required)

	doc := map[string]any{
		"type":       TypeObject,
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	return doc
}

func (f Field) jsonSchema() map[string]any {
	if f.Type == TypeObject {
		doc := f.Properties.jsonSchema()
		if f.Example != nil {
			doc["examples"] = []any{f.Example}
		}

		return doc
	}

	doc := map[string]any{"type": f.Type}
	if f.Type == TypeString && f.Required {
		doc["minLength"] = 1
	}
	if f.Format != "" {
		doc["format"] = f.Format
	}
	if f.Example != nil {
		doc["examples"] = []any{f.Example}
	}

	return doc
}

const rootField = "(root)"

// fieldName returns the dotted path of the failing field.
// Required errors are reported on the parent object, so the missing property is appended.
func fieldName(e gojsonschema.ResultError) string {
	field := strings.TrimPrefix(strings.TrimPrefix(e.Context().String(), rootField), ".")
	if e.Type() != "required" {
		return field
	}

	property, _ := e.Details()["property"].(string)
	switch {
	case property == "":
		return field
	case field == "":
		return property
	case field == property || strings.HasSuffix(field, "."+property):
		return field
	default:
		return field + "." + property
	}
}

var constraints = map[string]string{
	"required":     "required",
	"invalid_type": "type",
	"string_gte":   "minLength",
	"format":       "format",
}

func constraintName(errType string) string {
	if c, ok := constraints[errType]; ok {
		return c
	}

	return errType
}
