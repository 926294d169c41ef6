// Package swagger serves the OpenAPI document for the items API. The item
// schema comes from the same declaration the request validator is compiled
// from, so the served contract cannot drift from what the API enforces.
package swagger

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"

	domainsvcs "github.com/ghuser/itemlocations/services/item/domain/services"
)

// Version of the served API document.
const Version = "1.0.0"

var (
	stringType  = openapi3.Types{"string"}
	numberType  = openapi3.Types{"number"}
	integerType = openapi3.Types{"integer"}
	objectType  = openapi3.Types{"object"}
	arrayType   = openapi3.Types{"array"}
)

type doc struct{ body string }

func (d doc) ReadDoc() string { return d.body }

func init() {
	body, err := json.Marshal(Build())
	if err != nil {
		panic("swagger: marshal openapi document: " + err.Error())
	}
	swag.Register(swag.Name, doc{body: string(body)})
}

// Build returns the OpenAPI document for the items API.
func Build() *openapi3.T {
	item := itemSchema()
	errBody := errorSchema()

	root := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Items API",
			Version:     Version,
			Description: "Authenticated item-location ingestion. Every operation requires an `Authorization: Bearer <token>` header.",
		},
		Paths: &openapi3.Paths{},
	}

	idParam := &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name: "id", In: openapi3.ParameterInPath, Required: true,
		Description: "Item ID (UUID)",
		Schema:      &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &stringType}},
	}}

	create := operation("createItem", "Create item", errBody,
		http.StatusBadRequest, http.StatusUnauthorized, http.StatusBadGateway, http.StatusServiceUnavailable)
	create.Description = "Validates the document, stores the item and publishes it to the notification topic and the audit stream."
	create.RequestBody = jsonBody(domainsvcs.NewItemSchema().OpenAPI())
	create.Responses.Set(strconv.Itoa(http.StatusCreated), jsonResponse("Created", item))

	list := operation("listItems", "List items", errBody, http.StatusBadRequest, http.StatusUnauthorized)
	list.Parameters = openapi3.Parameters{
		queryInt("limit", "Page size", 1, 100, 50),
		queryInt("offset", "Items to skip", 0, 0, 0),
	}
	list.Responses.Set(strconv.Itoa(http.StatusOK), jsonResponse("OK", &openapi3.Schema{
		Type: &objectType,
		Properties: openapi3.Schemas{
			"items":  {Value: &openapi3.Schema{Type: &arrayType, Items: &openapi3.SchemaRef{Value: item}}},
			"total":  {Value: &openapi3.Schema{Type: &integerType}},
			"limit":  {Value: &openapi3.Schema{Type: &integerType}},
			"offset": {Value: &openapi3.Schema{Type: &integerType}},
		},
	}))

	get := operation("getItem", "Get item", errBody, http.StatusUnauthorized, http.StatusNotFound)
	get.Parameters = openapi3.Parameters{idParam}
	get.Responses.Set(strconv.Itoa(http.StatusOK), jsonResponse("OK", item))

	update := operation("updateItem", "Update item", errBody,
		http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound)
	update.Description = "Applies a partial document. Supplied fields are validated against the item schema."
	update.Parameters = openapi3.Parameters{idParam}
	update.RequestBody = jsonBody(partial(domainsvcs.NewItemSchema().OpenAPI()))
	update.Responses.Set(strconv.Itoa(http.StatusOK), jsonResponse("OK", item))

	del := operation("deleteItem", "Delete item", errBody, http.StatusUnauthorized, http.StatusNotFound)
	del.Parameters = openapi3.Parameters{idParam}
	del.Responses.Set(strconv.Itoa(http.StatusNoContent), &openapi3.ResponseRef{
		Value: &openapi3.Response{Description: strPtr("Deleted")},
	})

	root.Paths.Set("/items", &openapi3.PathItem{Post: create, Get: list})
	root.Paths.Set("/items/{id}", &openapi3.PathItem{Get: get, Patch: update, Delete: del})
	return root
}

func operation(id, summary string, errBody *openapi3.Schema, failures ...int) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: id,
		Summary:     summary,
		Tags:        []string{"items"},
		Responses:   &openapi3.Responses{},
	}
	for _, code := range failures {
		op.Responses.Set(strconv.Itoa(code), jsonResponse(http.StatusText(code), errBody))
	}
	return op
}

func jsonResponse(desc string, s *openapi3.Schema) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: strPtr(desc),
		Content: openapi3.Content{
			"application/json": &openapi3.MediaType{Schema: &openapi3.SchemaRef{Value: s}},
		},
	}}
}

func jsonBody(s *openapi3.Schema) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
		Required: true,
		Content: openapi3.Content{
			"application/json": &openapi3.MediaType{Schema: &openapi3.SchemaRef{Value: s}},
		},
	}}
}

func queryInt(name, desc string, minimum, maximum, def float64) *openapi3.ParameterRef {
	s := &openapi3.Schema{Type: &integerType, Min: &minimum, Default: def}
	if maximum > 0 {
		s.Max = &maximum
	}
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name: name, In: openapi3.ParameterInQuery, Description: desc,
		Schema: &openapi3.SchemaRef{Value: s},
	}}
}

// itemSchema is the stored item: the input document plus server fields.
func itemSchema() *openapi3.Schema {
	in := domainsvcs.NewItemSchema().OpenAPI()
	props := make(openapi3.Schemas, len(in.Properties)+4)
	for name, ref := range in.Properties {
		props[name] = ref
	}
	if users := in.Properties["users"]; users != nil && users.Value != nil {
		// Responses always carry users; null means the client never sent a list.
		nullable := *users.Value
		nullable.Nullable = true
		props["users"] = &openapi3.SchemaRef{Value: &nullable}
	}
	props["id"] = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &stringType, Description: "Server-assigned UUID"}}
	props["distanceFromReference"] = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &numberType, Description: "Miles from the reference point"}}
	props["createdAt"] = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &stringType, Format: "date-time"}}
	props["updatedAt"] = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &stringType, Format: "date-time"}}
	return &openapi3.Schema{
		Type:       &objectType,
		Required:   append([]string{"id"}, in.Required...),
		Properties: props,
	}
}

// partial copies s without its required list.
func partial(s *openapi3.Schema) *openapi3.Schema {
	return &openapi3.Schema{Type: s.Type, Properties: s.Properties}
}

func errorSchema() *openapi3.Schema {
	return &openapi3.Schema{
		Type:     &objectType,
		Required: []string{"error"},
		Properties: openapi3.Schemas{
			"error": {Value: &openapi3.Schema{Type: &stringType}},
			"kind":  {Value: &openapi3.Schema{Type: &stringType}},
			"field": {Value: &openapi3.Schema{Type: &stringType}},
		},
	}
}

func strPtr(s string) *string { return &s }
