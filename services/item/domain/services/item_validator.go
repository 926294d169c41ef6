// Package services contains stateless domain services for the item bounded context.
// Domain services operate purely on domain types and hold no external state.
package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getkin/kin-openapi/openapi3"

	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/models"
)

// documentField names the whole document in errors that are not tied to a property.
const documentField = "$"

// rule is a compiled property schema.
type rule struct {
	name    string
	typ     string
	maxLen  *uint64
	pattern *regexp.Regexp
	enum    []string
	format  string
	items   *rule
}

// Validator checks untyped documents against an ItemSchema. It is safe for
// concurrent use; all state is fixed at construction.
type Validator struct {
	required []string
	rules    []rule
}

// NewValidator compiles schema into a Validator.
func NewValidator(schema *ItemSchema) (*Validator, error) {
	v := &Validator{required: schema.Required()}
	for _, name := range schema.Properties() {
		r, err := compileRule(name, schema.Property(name))
		if err != nil {
			return nil, err
		}
		v.rules = append(v.rules, r)
	}
	return v, nil
}

func compileRule(name string, s *openapi3.Schema) (rule, error) {
	if s == nil || s.Type == nil || len(*s.Type) != 1 {
		return rule{}, fmt.Errorf("schema for %q must declare exactly one type", name)
	}
	r := rule{name: name, typ: (*s.Type)[0], maxLen: s.MaxLength, format: s.Format}
	switch r.typ {
	case "string", "number":
	case "array":
		if s.Items == nil || s.Items.Value == nil {
			return rule{}, fmt.Errorf("array schema for %q has no items", name)
		}
		items, err := compileRule(name, s.Items.Value)
		if err != nil {
			return rule{}, err
		}
		r.items = &items
	default:
		return rule{}, fmt.Errorf("unsupported type %q for %q", r.typ, name)
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return rule{}, fmt.Errorf("pattern for %q: %w", name, err)
		}
		r.pattern = re
	}
	for _, e := range s.Enum {
		str, ok := e.(string)
		if !ok {
			return rule{}, fmt.Errorf("enum for %q must hold strings", name)
		}
		r.enum = append(r.enum, str)
	}
	return r, nil
}

// Validate checks a complete document: required presence first, then each
// declared property in order. The first violation is returned as a
// *domain.ValidationError. Unknown properties are ignored.
func (v *Validator) Validate(doc any) (*models.Item, error) {
	obj, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	for _, name := range v.required {
		if _, ok := obj[name]; !ok {
			return nil, &itemdomain.ValidationError{Kind: itemdomain.MissingField, Field: name, Detail: "is required"}
		}
	}
	values, err := v.check(obj)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		Name:      models.ItemName(values[FieldName].(string)),
		Postcode:  values[FieldPostcode].(string),
		StartDate: values[FieldStartDate].(time.Time),
	}
	if f, ok := values[FieldLatitude].(float64); ok {
		item.Latitude = &f
	}
	if f, ok := values[FieldLongitude].(float64); ok {
		item.Longitude = &f
	}
	if s, ok := values[FieldDirectionFromReference].(string); ok {
		d := models.Direction(s)
		item.DirectionFromReference = &d
	}
	if s, ok := values[FieldTitle].(string); ok {
		item.Title = &s
	}
	if users, ok := values[FieldUsers].([]string); ok {
		item.Users = users
	}
	return item, nil
}

// ValidatePartial checks a PATCH document. Required presence is not enforced;
// every supplied property must satisfy its schema.
func (v *Validator) ValidatePartial(doc any) (*models.ItemPatch, error) {
	obj, err := asObject(doc)
	if err != nil {
		return nil, err
	}
	values, err := v.check(obj)
	if err != nil {
		return nil, err
	}

	patch := &models.ItemPatch{}
	if s, ok := values[FieldName].(string); ok {
		n := models.ItemName(s)
		patch.Name = &n
	}
	if s, ok := values[FieldPostcode].(string); ok {
		patch.Postcode = &s
	}
	if f, ok := values[FieldLatitude].(float64); ok {
		patch.Latitude = &f
	}
	if f, ok := values[FieldLongitude].(float64); ok {
		patch.Longitude = &f
	}
	if s, ok := values[FieldDirectionFromReference].(string); ok {
		d := models.Direction(s)
		patch.DirectionFromReference = &d
	}
	if s, ok := values[FieldTitle].(string); ok {
		patch.Title = &s
	}
	if users, ok := values[FieldUsers].([]string); ok {
		patch.Users = &users
	}
	if ts, ok := values[FieldStartDate].(time.Time); ok {
		patch.StartDate = &ts
	}
	return patch, nil
}

// check runs every rule whose property is present and returns the typed values.
func (v *Validator) check(obj map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(v.rules))
	for i := range v.rules {
		r := &v.rules[i]
		raw, ok := obj[r.name]
		if !ok {
			continue
		}
		val, err := r.check(raw, r.name)
		if err != nil {
			return nil, err
		}
		values[r.name] = val
	}
	return values, nil
}

// check validates one value. Order within a property: type, maxLength,
// pattern, enum, format. label names the value in error details.
func (r *rule) check(raw any, label string) (any, error) {
	switch r.typ {
	case "number":
		f, ok := toFloat(raw)
		if !ok {
			return nil, r.fail(itemdomain.TypeMismatch, "%s must be a number", label)
		}
		return f, nil

	case "array":
		elems, ok := raw.([]any)
		if !ok {
			return nil, r.fail(itemdomain.TypeMismatch, "%s must be an array", label)
		}
		out := make([]string, 0, len(elems))
		for i, e := range elems {
			val, err := r.items.check(e, fmt.Sprintf("%s[%d]", r.name, i))
			if err != nil {
				return nil, err
			}
			out = append(out, val.(string))
		}
		return out, nil
	}

	s, ok := raw.(string)
	if !ok {
		return nil, r.fail(itemdomain.TypeMismatch, "%s must be a string", label)
	}
	if r.maxLen != nil && uint64(utf8.RuneCountInString(s)) > *r.maxLen {
		return nil, r.fail(itemdomain.LengthExceeded, "%s must be at most %d characters", label, *r.maxLen)
	}
	if r.pattern != nil && !r.pattern.MatchString(s) {
		return nil, r.fail(itemdomain.PatternMismatch, "%s must match %s", label, r.pattern.String())
	}
	if len(r.enum) > 0 && !slices.Contains(r.enum, s) {
		return nil, r.fail(itemdomain.EnumMismatch, "%s must be one of %s", label, strings.Join(r.enum, ", "))
	}
	if r.format == "date-time" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, r.fail(itemdomain.FormatInvalid, "%s must be an ISO-8601 date-time", label)
		}
		return ts, nil
	}
	return s, nil
}

func (r *rule) fail(kind itemdomain.ValidationKind, format string, args ...any) error {
	return &itemdomain.ValidationError{Kind: kind, Field: r.name, Detail: fmt.Sprintf(format, args...)}
}

func asObject(doc any) (map[string]any, error) {
	obj, ok := doc.(map[string]any)
	if !ok || obj == nil {
		return nil, &itemdomain.ValidationError{
			Kind:   itemdomain.TypeMismatch,
			Field:  documentField,
			Detail: "document must be a JSON object",
		}
	}
	return obj, nil
}

// toFloat accepts json.Number (decoder with UseNumber) and float64 (plain
// decoding). Booleans and strings are not numbers.
func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
