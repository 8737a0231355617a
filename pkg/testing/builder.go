package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/getmockd/mockapi/internal/id"
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

// RouteBuilder builds a custom route using a fluent API.
type RouteBuilder struct {
	server *MockServer
	route  *catalog.RouteDefinition
	err    error // First error encountered during building
}

// Route starts a custom route for method and path. Path segments starting
// with ":" are parameters, e.g. "/users/:id".
func (m *MockServer) Route(method, path string) *RouteBuilder {
	return &RouteBuilder{
		server: m,
		route: &catalog.RouteDefinition{
			Method:     strings.ToUpper(method),
			Path:       path,
			StatusCode: http.StatusOK,
		},
	}
}

// setError records the first error encountered during building.
func (b *RouteBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *RouteBuilder) Err() error {
	return b.err
}

// WithID sets the route id, needed when another route depends on it.
// Without one a random id is used.
func (b *RouteBuilder) WithID(routeID string) *RouteBuilder {
	b.route.ID = routeID
	return b
}

// WithStatus sets the HTTP response status code.
// Default is 200 (OK).
func (b *RouteBuilder) WithStatus(status int) *RouteBuilder {
	b.route.StatusCode = status
	return b
}

// WithBody sets the response body. Strings in the body may hold "{param}"
// placeholders.
func (b *RouteBuilder) WithBody(body any) *RouteBuilder {
	b.route.ResponseBody = b.normalize("WithBody", body)
	return b
}

// WithJSON sets the response body from a JSON document.
func (b *RouteBuilder) WithJSON(body string) *RouteBuilder {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		b.setError(fmt.Errorf("WithJSON: invalid JSON: %w", err))
		return b
	}
	b.route.ResponseBody = v
	return b
}

// WithQueryParam documents a query parameter. Declared parameters show up in
// the 404 diagnostic and in OpenAPI exports.
func (b *RouteBuilder) WithQueryParam(name, typ string, required bool) *RouteBuilder {
	b.route.QueryParams = append(b.route.QueryParams, catalog.QueryParam{Name: name, Type: typ, Required: required})
	return b
}

// WithRequestSchema validates request bodies against a JSON Schema.
// Invalid bodies are answered with 400.
func (b *RouteBuilder) WithRequestSchema(schema any) *RouteBuilder {
	b.route.RequestBodySchema = b.normalize("WithRequestSchema", schema)
	return b
}

// WithWebhook posts the request to url after the response is written.
func (b *RouteBuilder) WithWebhook(url string) *RouteBuilder {
	b.route.WebhookURL = url
	return b
}

// WhenHeader answers with Then or Otherwise depending on a request header.
func (b *RouteBuilder) WhenHeader(key string, op catalog.Operator, value any) *RouteBuilder {
	return b.when(catalog.Condition{Type: catalog.ConditionHeader, Key: key, Operator: op, Value: value})
}

// WhenQuery answers with Then or Otherwise depending on a query parameter.
func (b *RouteBuilder) WhenQuery(key string, op catalog.Operator, value any) *RouteBuilder {
	return b.when(catalog.Condition{Type: catalog.ConditionQuery, Key: key, Operator: op, Value: value})
}

// WhenBody answers with Then or Otherwise depending on a request body field.
func (b *RouteBuilder) WhenBody(key string, op catalog.Operator, value any) *RouteBuilder {
	return b.when(catalog.Condition{Type: catalog.ConditionBody, Key: key, Operator: op, Value: value})
}

// WhenDependent calls the route with id routeID using the same method,
// query and headers, and tests the value at path in its response body.
func (b *RouteBuilder) WhenDependent(routeID, path string, op catalog.Operator, value any) *RouteBuilder {
	return b.when(catalog.Condition{
		Type:             catalog.ConditionDependentAPI,
		DependentAPIID:   routeID,
		DependentAPIPath: path,
		Operator:         op,
		Value:            value,
	})
}

// WhenExpression answers with Then or Otherwise depending on an expr-lang
// expression over headers, query, body and params.
func (b *RouteBuilder) WhenExpression(expression string) *RouteBuilder {
	return b.when(catalog.Condition{Type: catalog.ConditionExpression, Expression: expression})
}

func (b *RouteBuilder) when(cond catalog.Condition) *RouteBuilder {
	b.conditional().Condition = cond
	return b
}

// Then sets the response used when the condition holds. Status 0 keeps the
// route status.
func (b *RouteBuilder) Then(body any, status int) *RouteBuilder {
	c := b.conditional()
	c.ResponseIfTrue = b.normalize("Then", body)
	c.StatusCodeIfTrue = status
	return b
}

// Otherwise sets the response used when the condition does not hold.
func (b *RouteBuilder) Otherwise(body any, status int) *RouteBuilder {
	c := b.conditional()
	c.ResponseIfFalse = b.normalize("Otherwise", body)
	c.StatusCodeIfFalse = status
	return b
}

func (b *RouteBuilder) conditional() *catalog.ConditionalResponse {
	if b.route.Conditional == nil {
		b.route.Conditional = &catalog.ConditionalResponse{}
	}
	return b.route.Conditional
}

// normalize turns structs into plain JSON values so bodies behave the same
// as ones read from catalog files.
func (b *RouteBuilder) normalize(op string, v any) any {
	switch v.(type) {
	case nil, string, bool, float64, map[string]any, []any:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		b.setError(fmt.Errorf("%s: failed to marshal: %w", op, err))
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		b.setError(fmt.Errorf("%s: %w", op, err))
		return nil
	}
	return out
}

// Reply adds the route to the server. It fails the test on a build error.
func (b *RouteBuilder) Reply() *catalog.RouteDefinition {
	t := b.server.t
	t.Helper()
	if b.err != nil {
		t.Fatalf("route %s %s: %v", b.route.Method, b.route.Path, b.err)
		return nil
	}
	if b.route.ID == "" {
		b.route.ID = strings.ToLower(b.route.Method) + "-" + id.Short()
	}
	if err := b.server.add(&catalog.Catalog{Routes: []*catalog.RouteDefinition{b.route}}); err != nil {
		t.Fatalf("route %s %s: %v", b.route.Method, b.route.Path, err)
	}
	return b.route
}

// ResourceBuilder builds a resource definition using a fluent API.
type ResourceBuilder struct {
	server  *MockServer
	def     *catalog.ResourceDefinition
	records []*record.Record
	count   int
}

// Resource starts a resource served at /name and /name/:id.
func (m *MockServer) Resource(name string) *ResourceBuilder {
	return &ResourceBuilder{
		server: m,
		def:    &catalog.ResourceDefinition{ID: name, Name: name},
		count:  -1,
	}
}

// Field adds a field. hint picks a generator such as "email" or "city" and
// may be empty.
func (b *ResourceBuilder) Field(name string, typ catalog.FieldType, hint string) *ResourceBuilder {
	b.def.Fields = append(b.def.Fields, catalog.FieldSpec{Name: name, Type: typ, Generator: hint})
	return b
}

// RequiredField adds a field POST bodies must carry.
func (b *ResourceBuilder) RequiredField(name string, typ catalog.FieldType) *ResourceBuilder {
	b.def.Fields = append(b.def.Fields, catalog.FieldSpec{Name: name, Type: typ, Required: true})
	return b
}

// Relation adds a field holding the id of a record of resource to.
func (b *ResourceBuilder) Relation(name, to string) *ResourceBuilder {
	b.def.Fields = append(b.def.Fields, catalog.FieldSpec{Name: name, Type: catalog.FieldRelation, RelationTo: to})
	return b
}

// Records seeds the collection. Seeds are ignored when Generate is set.
func (b *ResourceBuilder) Records(records ...map[string]any) *ResourceBuilder {
	for _, r := range records {
		b.records = append(b.records, record.FromMap(r))
	}
	return b
}

// Generate fills the collection with n generated records, replacing any
// seeded ones.
func (b *ResourceBuilder) Generate(n int) *ResourceBuilder {
	b.count = n
	return b
}

// Add adds the resource to the server. A resource without records or
// Generate starts with an empty collection.
func (b *ResourceBuilder) Add() *catalog.ResourceDefinition {
	t := b.server.t
	t.Helper()

	c := &catalog.Catalog{Resources: []*catalog.ResourceDefinition{b.def}}
	switch {
	case b.count >= 0:
		c.Generate = map[string]int{b.def.Name: b.count}
	case len(b.records) > 0:
		c.Records = map[string][]*record.Record{b.def.Name: b.records}
	default:
		c.Records = map[string][]*record.Record{b.def.Name: {}}
	}
	if err := b.server.add(c); err != nil {
		t.Fatalf("resource %s: %v", b.def.Name, err)
	}
	return b.def
}
