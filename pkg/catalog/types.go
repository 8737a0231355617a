package catalog

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/getmockd/mockapi/pkg/record"
)

// Supported route methods.
var Methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
}

// RouteDefinition is a user-defined custom endpoint.
type RouteDefinition struct {
	ID     string `json:"id" yaml:"id" bson:"_id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	Method string `json:"method" yaml:"method" bson:"method"`
	// Path may contain :name segments, e.g. /users/:id/orders.
	Path       string `json:"path" yaml:"path" bson:"path"`
	StatusCode int    `json:"statusCode" yaml:"statusCode" bson:"statusCode"`
	// ResponseBody is any JSON value. nil means the response has no body.
	ResponseBody any `json:"responseBody" yaml:"responseBody" bson:"responseBody"`
	// RequestBodySchema is a JSON Schema used for documentation only.
	RequestBodySchema any                  `json:"requestBodySchema,omitempty" yaml:"requestBodySchema,omitempty" bson:"requestBodySchema,omitempty"`
	QueryParams       []QueryParam         `json:"queryParams,omitempty" yaml:"queryParams,omitempty" bson:"queryParams,omitempty"`
	WebhookURL        string               `json:"webhookUrl,omitempty" yaml:"webhookUrl,omitempty" bson:"webhookUrl,omitempty"`
	Conditional       *ConditionalResponse `json:"conditionalResponse,omitempty" yaml:"conditionalResponse,omitempty" bson:"conditionalResponse,omitempty"`
	Description       string               `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
}

// QueryParam documents a query parameter a route understands.
type QueryParam struct {
	Name        string `json:"name" yaml:"name" bson:"name"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty" bson:"type,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" bson:"required,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
}

// ConditionalResponse selects between two responses based on a Condition.
type ConditionalResponse struct {
	Condition       Condition `json:"condition" yaml:"condition" bson:"condition"`
	ResponseIfTrue  any       `json:"responseIfTrue" yaml:"responseIfTrue" bson:"responseIfTrue"`
	ResponseIfFalse any       `json:"responseIfFalse" yaml:"responseIfFalse" bson:"responseIfFalse"`
	// Zero status codes fall back to the route's StatusCode.
	StatusCodeIfTrue  int `json:"statusCodeIfTrue,omitempty" yaml:"statusCodeIfTrue,omitempty" bson:"statusCodeIfTrue,omitempty"`
	StatusCodeIfFalse int `json:"statusCodeIfFalse,omitempty" yaml:"statusCodeIfFalse,omitempty" bson:"statusCodeIfFalse,omitempty"`
}

// Branch returns the body and status for the given outcome.
func (c *ConditionalResponse) Branch(outcome bool, defaultStatus int) (any, int) {
	body, status := c.ResponseIfFalse, c.StatusCodeIfFalse
	if outcome {
		body, status = c.ResponseIfTrue, c.StatusCodeIfTrue
	}
	if status == 0 {
		status = defaultStatus
	}
	return body, status
}

// ConditionType selects where a condition reads its actual value from.
type ConditionType string

// Condition types.
const (
	ConditionHeader       ConditionType = "header"
	ConditionQuery        ConditionType = "query"
	ConditionBody         ConditionType = "body"
	ConditionDependentAPI ConditionType = "dependentApi"
	// ConditionExpression evaluates an expr-lang boolean expression over
	// headers, query, body and params.
	ConditionExpression ConditionType = "expression"
)

// Operator compares the actual value against the condition's value.
type Operator string

// Operators.
const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpExists      Operator = "exists"
)

// Condition is a single boolean test.
type Condition struct {
	Type ConditionType `json:"type" yaml:"type" bson:"type"`
	// Key is a header name, query parameter name, or dot path into the body.
	Key      string   `json:"key,omitempty" yaml:"key,omitempty" bson:"key,omitempty"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty" bson:"operator,omitempty"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty" bson:"value,omitempty"`
	// DependentAPIID references another RouteDefinition by id.
	DependentAPIID string `json:"dependentApiId,omitempty" yaml:"dependentApiId,omitempty" bson:"dependentApiId,omitempty"`
	// DependentAPIPath is a dot path (or $-rooted JSONPath) into the dependent response.
	DependentAPIPath string `json:"dependentApiPath,omitempty" yaml:"dependentApiPath,omitempty" bson:"dependentApiPath,omitempty"`
	Expression       string `json:"expression,omitempty" yaml:"expression,omitempty" bson:"expression,omitempty"`
}

// ResourceDefinition is a named collection served by the generic resource endpoints.
type ResourceDefinition struct {
	ID          string      `json:"id" yaml:"id" bson:"_id"`
	Name        string      `json:"name" yaml:"name" bson:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	Fields      []FieldSpec `json:"fields" yaml:"fields" bson:"fields"`
}

// FieldType is the data type of a resource field.
type FieldType string

// Field types.
const (
	FieldString   FieldType = "string"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldEmail    FieldType = "email"
	FieldUUID     FieldType = "uuid"
	FieldImage    FieldType = "image"
	FieldRelation FieldType = "relation"
)

// FieldSpec describes one field of a resource.
type FieldSpec struct {
	ID   string    `json:"id,omitempty" yaml:"id,omitempty" bson:"id,omitempty"`
	Name string    `json:"name" yaml:"name" bson:"name"`
	Type FieldType `json:"type" yaml:"type" bson:"type"`
	// Generator is a hint for the data generator, e.g. "firstName" or "company".
	Generator  string `json:"generator,omitempty" yaml:"generator,omitempty" bson:"generator,omitempty"`
	RelationTo string `json:"relationTo,omitempty" yaml:"relationTo,omitempty" bson:"relationTo,omitempty"`
	Required   bool   `json:"required,omitempty" yaml:"required,omitempty" bson:"required,omitempty"`
}

// Catalog is a complete set of definitions plus optional seed data.
type Catalog struct {
	Routes    []*RouteDefinition    `json:"routes,omitempty" yaml:"routes,omitempty"`
	Resources []*ResourceDefinition `json:"resources,omitempty" yaml:"resources,omitempty"`
	// Records seeds resource collections by resource name.
	Records map[string][]*record.Record `json:"records,omitempty" yaml:"records,omitempty"`
	// Generate asks for count generated records per resource name at load time.
	Generate map[string]int `json:"generate,omitempty" yaml:"generate,omitempty"`
}

// Normalize canonicalizes methods and folds decoded values into JSON shapes.
func (r *RouteDefinition) Normalize() {
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	r.ResponseBody = record.Normalize(r.ResponseBody)
	r.RequestBodySchema = record.Normalize(r.RequestBodySchema)
	if c := r.Conditional; c != nil {
		c.ResponseIfTrue = record.Normalize(c.ResponseIfTrue)
		c.ResponseIfFalse = record.Normalize(c.ResponseIfFalse)
		c.Condition.Value = record.Normalize(c.Condition.Value)
	}
}

// Signature renders the route as "METHOD path".
func (r *RouteDefinition) Signature() string {
	return r.Method + " " + r.Path
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// SlugID derives a route id from method and path, e.g. "get-users-id" for
// GET /users/:id.
func SlugID(method, path string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(method+" "+path), "-"), "-")
}

// Merge appends other's definitions and seed data to c.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	c.Routes = append(c.Routes, other.Routes...)
	c.Resources = append(c.Resources, other.Resources...)
	for name, recs := range other.Records {
		if c.Records == nil {
			c.Records = make(map[string][]*record.Record)
		}
		c.Records[name] = append(c.Records[name], recs...)
	}
	for name, n := range other.Generate {
		if c.Generate == nil {
			c.Generate = make(map[string]int)
		}
		c.Generate[name] += n
	}
}

// Normalize normalizes every route in the catalog and defaults resource ids
// to their names.
func (c *Catalog) Normalize() {
	for _, r := range c.Routes {
		if r != nil {
			r.Normalize()
		}
	}
	for _, d := range c.Resources {
		if d != nil && d.ID == "" {
			d.ID = d.Name
		}
	}
}

// ResourceNames returns resource names in catalog order.
func ResourceNames(defs []*ResourceDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
}

// FindResource returns the definition named name, or nil.
func FindResource(defs []*ResourceDefinition, name string) *ResourceDefinition {
	for _, d := range defs {
		if d != nil && d.Name == name {
			return d
		}
	}
	return nil
}
