// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	apperrors "provider-enrollment/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// StatusUpdateSchema describes the body of PUT /api/applications/{id}/status.
// The status value itself is checked by the workflow so that unknown values
// surface as INVALID_STATUS.
const StatusUpdateSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"type": "string", "minLength": 1},
    "notes":  {"type": ["string", "null"], "maxLength": 5000}
  }
}`

// CreateApplicationSchema describes the body of POST /api/applications.
const CreateApplicationSchema = `{
  "type": "object",
  "required": ["applicationType", "formData"],
  "properties": {
    "applicationType": {"type": "string", "minLength": 1},
    "formData": {"type": "object"}
  }
}`

const rootContext = "(root)"

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// Compile parses a JSON schema document.
func Compile(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateBytes validates a raw JSON document. Malformed JSON is reported as
// a single "body" error.
func (s *Schema) ValidateBytes(doc []byte) []apperrors.FieldError {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return []apperrors.FieldError{{
			Field:   "body",
			Message: "request body must be valid JSON",
			Code:    "INVALID_JSON",
		}}
	}
	return toFieldErrors(result)
}

// Validate validates an already-decoded Go value.
func (s *Schema) Validate(doc interface{}) []apperrors.FieldError {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return []apperrors.FieldError{{
			Field:   "body",
			Message: err.Error(),
			Code:    "INVALID_DOCUMENT",
		}}
	}
	return toFieldErrors(result)
}

func toFieldErrors(result *gojsonschema.Result) []apperrors.FieldError {
	if result.Valid() {
		return nil
	}

	out := make([]apperrors.FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		// required errors are reported against the parent object
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				if field == rootContext || field == "" {
					field = prop
				} else {
					field = field + "." + prop
				}
			}
		}
		out = append(out, apperrors.FieldError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}
