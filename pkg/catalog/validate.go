package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resourceNamePattern is the shape of a resource name, which doubles as a URL segment.
var resourceNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

var (
	conditionTypes = []ConditionType{ConditionHeader, ConditionQuery, ConditionBody, ConditionDependentAPI, ConditionExpression}
	operators      = []Operator{OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpExists}
	fieldTypes     = []FieldType{FieldString, FieldNumber, FieldBoolean, FieldDate, FieldEmail, FieldUUID, FieldImage, FieldRelation}
)

// ValidationError reports an invalid definition.
type ValidationError struct {
	Kind    string
	ID      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	subject := e.Kind
	if e.ID != "" {
		subject = fmt.Sprintf("%s %q", e.Kind, e.ID)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", subject, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", subject, e.Message)
}

// StatusCode returns the HTTP status for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// ValidResourceName reports whether name can be used as a resource name.
func ValidResourceName(name string) bool {
	return resourceNamePattern.MatchString(name)
}

// Validate checks a route definition on its own.
func (r *RouteDefinition) Validate() error {
	invalid := func(field, msg string) error {
		return &ValidationError{Kind: "route", ID: r.ID, Field: field, Message: msg}
	}

	var errs []error
	if r.ID == "" {
		errs = append(errs, invalid("id", "is required"))
	}
	if !slices.Contains(Methods, strings.ToUpper(r.Method)) {
		errs = append(errs, invalid("method", fmt.Sprintf("unsupported method %q", r.Method)))
	}
	if !strings.HasPrefix(r.Path, "/") {
		errs = append(errs, invalid("path", "must start with /"))
	}
	for _, seg := range strings.Split(r.Path, "/") {
		if seg == ":" {
			errs = append(errs, invalid("path", "parameter segment needs a name"))
		}
	}
	if r.StatusCode < 100 || r.StatusCode > 599 {
		errs = append(errs, invalid("statusCode", fmt.Sprintf("invalid status code %d", r.StatusCode)))
	}
	if r.RequestBodySchema != nil {
		if err := compileSchema(r.RequestBodySchema); err != nil {
			errs = append(errs, invalid("requestBodySchema", err.Error()))
		}
	}
	if c := r.Conditional; c != nil {
		for _, code := range []int{c.StatusCodeIfTrue, c.StatusCodeIfFalse} {
			if code != 0 && (code < 100 || code > 599) {
				errs = append(errs, invalid("conditionalResponse", fmt.Sprintf("invalid status code %d", code)))
			}
		}
		if err := c.Condition.Validate(); err != nil {
			errs = append(errs, invalid("conditionalResponse.condition", err.Error()))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the condition's type-specific requirements.
func (c *Condition) Validate() error {
	if !slices.Contains(conditionTypes, c.Type) {
		return fmt.Errorf("unsupported condition type %q", c.Type)
	}
	switch c.Type {
	case ConditionExpression:
		if strings.TrimSpace(c.Expression) == "" {
			return errors.New("expression is required")
		}
		return nil
	case ConditionDependentAPI:
		if c.DependentAPIID == "" {
			return errors.New("dependentApiId is required")
		}
		if c.Operator == "" {
			// An empty operator always evaluates to false.
			return nil
		}
	case ConditionHeader, ConditionQuery:
		if c.Key == "" {
			return errors.New("key is required")
		}
	}
	if !slices.Contains(operators, c.Operator) {
		return fmt.Errorf("unsupported operator %q", c.Operator)
	}
	return nil
}

// Validate checks a resource definition on its own.
func (d *ResourceDefinition) Validate() error {
	invalid := func(field, msg string) error {
		return &ValidationError{Kind: "resource", ID: d.Name, Field: field, Message: msg}
	}

	var errs []error
	if !ValidResourceName(d.Name) {
		errs = append(errs, invalid("name", "must match [a-z][a-z0-9_-]*"))
	}
	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		field := fmt.Sprintf("fields[%d]", i)
		if f.Name == "" {
			errs = append(errs, invalid(field, "name is required"))
		} else if seen[f.Name] {
			errs = append(errs, invalid(field, fmt.Sprintf("duplicate field %q", f.Name)))
		}
		seen[f.Name] = true
		if !slices.Contains(fieldTypes, f.Type) {
			errs = append(errs, invalid(field, fmt.Sprintf("unsupported type %q", f.Type)))
		}
		if f.Type == FieldRelation && f.RelationTo == "" {
			errs = append(errs, invalid(field, "relation fields need relationTo"))
		}
	}
	return errors.Join(errs...)
}

// Report is the outcome of validating a whole catalog.
type Report struct {
	Errors   []error
	Warnings []string
}

// Err joins all errors, or returns nil.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// ValidateCatalog validates every definition plus cross references.
// Duplicate ids and names are errors. Dangling dependentApiId and relationTo
// references are warnings: both are tolerated at serve time.
func ValidateCatalog(c *Catalog) *Report {
	rep := &Report{}

	routeIDs := make(map[string]bool, len(c.Routes))
	for _, r := range c.Routes {
		if r == nil {
			continue
		}
		if err := r.Validate(); err != nil {
			rep.Errors = append(rep.Errors, err)
		}
		if r.ID != "" && routeIDs[r.ID] {
			rep.Errors = append(rep.Errors, &ValidationError{Kind: "route", ID: r.ID, Message: "duplicate id"})
		}
		routeIDs[r.ID] = true
	}

	names := make(map[string]bool, len(c.Resources))
	for _, d := range c.Resources {
		if d == nil {
			continue
		}
		if err := d.Validate(); err != nil {
			rep.Errors = append(rep.Errors, err)
		}
		if names[d.Name] {
			rep.Errors = append(rep.Errors, &ValidationError{Kind: "resource", ID: d.Name, Message: "duplicate name"})
		}
		names[d.Name] = true
	}

	for _, r := range c.Routes {
		if r == nil || r.Conditional == nil {
			continue
		}
		cond := r.Conditional.Condition
		if cond.Type == ConditionDependentAPI && cond.DependentAPIID != "" && !routeIDs[cond.DependentAPIID] {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("route %q: dependentApiId %q does not exist; condition will evaluate to false", r.ID, cond.DependentAPIID))
		}
	}
	for _, d := range c.Resources {
		if d == nil {
			continue
		}
		for _, f := range d.Fields {
			if f.Type == FieldRelation && f.RelationTo != "" && !names[f.RelationTo] {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("resource %q: field %q relates to unknown resource %q", d.Name, f.Name, f.RelationTo))
			}
		}
	}
	for name := range c.Records {
		if !names[name] {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("records for unknown resource %q are stored but not served", name))
		}
	}
	for name, n := range c.Generate {
		if !names[name] {
			rep.Errors = append(rep.Errors, &ValidationError{Kind: "generate", ID: name, Message: "unknown resource"})
		} else if n < 0 {
			rep.Errors = append(rep.Errors, &ValidationError{Kind: "generate", ID: name, Message: "count must not be negative"})
		}
	}
	return rep
}

func compileSchema(schema any) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("schema is not JSON: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", strings.NewReader(string(data))); err != nil {
		return err
	}
	_, err = compiler.Compile("schema.json")
	return err
}
