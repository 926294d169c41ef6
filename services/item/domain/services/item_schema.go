package services

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ghuser/itemlocations/services/item/domain/models"
)

// Item document property names.
const (
	FieldName                   = "name"
	FieldPostcode               = "postcode"
	FieldLatitude               = "latitude"
	FieldLongitude              = "longitude"
	FieldDirectionFromReference = "directionFromReference"
	FieldTitle                  = "title"
	FieldUsers                  = "users"
	FieldStartDate              = "startDate"
)

// PostcodePattern accepts exactly five ASCII digits.
const PostcodePattern = "^[0-9]{5}$"

// ItemSchema is the immutable declaration of an acceptable item document.
// It is built once at startup and shared by the validator and the served
// OpenAPI document. Callers must not mutate the returned schema.
type ItemSchema struct {
	schema *openapi3.Schema
	order  []string
}

// NewItemSchema declares the item document: required fields, per-property
// type and constraints, and the order in which properties are checked.
func NewItemSchema() *ItemSchema {
	maxLen := uint64(models.MaxItemNameLength)

	enum := make([]any, 0, len(models.Directions))
	for _, d := range models.Directions {
		enum = append(enum, string(d))
	}

	props := []struct {
		name   string
		schema *openapi3.Schema
	}{
		{FieldName, &openapi3.Schema{Type: types("string"), MaxLength: &maxLen, Description: "Display name"}},
		{FieldPostcode, &openapi3.Schema{Type: types("string"), Pattern: PostcodePattern, Description: "Five digit postcode", Example: "10001"}},
		{FieldLatitude, &openapi3.Schema{Type: types("number")}},
		{FieldLongitude, &openapi3.Schema{Type: types("number")}},
		{FieldDirectionFromReference, &openapi3.Schema{Type: types("string"), Enum: enum, Description: "Quadrant relative to the reference point"}},
		{FieldTitle, &openapi3.Schema{Type: types("string")}},
		{FieldUsers, &openapi3.Schema{
			Type:  types("array"),
			Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: types("string"), MaxLength: &maxLen}},
		}},
		{FieldStartDate, &openapi3.Schema{Type: types("string"), Format: "date-time"}},
	}

	s := &openapi3.Schema{
		Type:       types("object"),
		Required:   []string{FieldName, FieldPostcode, FieldStartDate},
		Properties: make(openapi3.Schemas, len(props)),
	}
	order := make([]string, 0, len(props))
	for _, p := range props {
		s.Properties[p.name] = &openapi3.SchemaRef{Value: p.schema}
		order = append(order, p.name)
	}

	return &ItemSchema{schema: s, order: order}
}

// OpenAPI returns the underlying schema object.
func (s *ItemSchema) OpenAPI() *openapi3.Schema {
	return s.schema
}

// Required returns the required property names in check order.
func (s *ItemSchema) Required() []string {
	return append([]string(nil), s.schema.Required...)
}

// Properties returns the declared property names in check order.
func (s *ItemSchema) Properties() []string {
	return append([]string(nil), s.order...)
}

// Property returns the schema of a declared property, or nil.
func (s *ItemSchema) Property(name string) *openapi3.Schema {
	ref, ok := s.schema.Properties[name]
	if !ok || ref == nil {
		return nil
	}
	return ref.Value
}

func types(t string) *openapi3.Types {
	return &openapi3.Types{t}
}
