package llm

import "encoding/json"

// JSONSchema implements json.Marshaler for OpenAI's JSON Schema format.
// The alias type prevents infinite recursion during marshaling.
type JSONSchema struct {
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	MinItems             *int                   `json:"minItems,omitempty"`
	MaxItems             *int                   `json:"maxItems,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
}

// MarshalJSON implements json.Marshaler for JSONSchema.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	type alias JSONSchema
	return json.Marshal((*alias)(s))
}

// Object returns an object schema whose properties are all required and closed to extras.
func Object(properties map[string]*JSONSchema, required ...string) *JSONSchema {
	closed := false
	return &JSONSchema{
		Type:                 "object",
		Properties:           properties,
		Required:             required,
		AdditionalProperties: &closed,
	}
}

// String returns a string schema.
func String() *JSONSchema {
	return &JSONSchema{Type: "string"}
}

// ArrayOf returns an array schema with item count bounds.
func ArrayOf(items *JSONSchema, minItems, maxItems int) *JSONSchema {
	return &JSONSchema{
		Type:     "array",
		Items:    items,
		MinItems: &minItems,
		MaxItems: &maxItems,
	}
}
