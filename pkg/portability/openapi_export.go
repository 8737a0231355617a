package portability

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockapi/internal/matching"
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/query"
	"github.com/getmockd/mockapi/pkg/record"
)

// OpenAPIVersion is the version of every exported document.
const OpenAPIVersion = "3.0.3"

// Extensions carried on exported operations.
const (
	ExtWebhook   = "x-mockapi-webhook"
	ExtCondition = "x-mockapi-condition"
	ExtRouteID   = "x-mockapi-route-id"
)

// ExportOptions controls an OpenAPI export.
type ExportOptions struct {
	Title       string
	Version     string
	Description string
	// ServerURL is listed under servers, e.g. http://localhost:4280/api/v1.
	ServerURL string
	// AsYAML if true, outputs YAML instead of JSON
	AsYAML bool
}

// ExportOpenAPI renders routes and resources as an OpenAPI document.
func ExportOpenAPI(routes []*catalog.RouteDefinition, resources []*catalog.ResourceDefinition, opts ExportOptions) ([]byte, error) {
	doc, err := BuildOpenAPI(routes, resources, opts)
	if err != nil {
		return nil, err
	}

	var data []byte
	if opts.AsYAML {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return nil, &ExportError{Format: FormatOpenAPI, Message: "failed to encode document", Cause: err}
	}
	return data, nil
}

// BuildOpenAPI builds the document. Custom routes are added first; a
// resource operation is skipped when a route already owns the same method
// and path, since the route answers first at runtime.
func BuildOpenAPI(routes []*catalog.RouteDefinition, resources []*catalog.ResourceDefinition, opts ExportOptions) (*openapi3.T, error) {
	title := opts.Title
	if title == "" {
		title = "Mock API"
	}
	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}
	description := opts.Description
	if description == "" {
		description = "Exported from mockapi"
	}

	doc := &openapi3.T{
		OpenAPI: OpenAPIVersion,
		Info: &openapi3.Info{
			Title:       title,
			Version:     version,
			Description: description,
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}
	if opts.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: opts.ServerURL}}
	}

	for _, r := range routes {
		if r == nil {
			continue
		}
		op, err := routeOperation(r)
		if err != nil {
			return nil, &ExportError{Format: FormatOpenAPI, Message: "route " + r.ID, Cause: err}
		}
		pathItem(doc, toOpenAPIPath(r.Path)).SetOperation(r.Method, op)
	}

	for _, d := range resources {
		if d == nil {
			continue
		}
		addResource(doc, d)
	}
	return doc, nil
}

func pathItem(doc *openapi3.T, path string) *openapi3.PathItem {
	item := doc.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
		doc.Paths.Set(path, item)
	}
	return item
}

func routeOperation(r *catalog.RouteDefinition) (*openapi3.Operation, error) {
	op := openapi3.NewOperation()
	op.OperationID = r.ID
	op.Summary = r.Name
	if op.Summary == "" {
		op.Summary = r.Signature()
	}
	op.Description = r.Description
	op.Tags = []string{"routes"}
	op.Extensions = map[string]any{ExtRouteID: r.ID}

	for _, name := range matching.Compile(r.Path).ParamNames() {
		op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()))
	}
	for _, qp := range r.QueryParams {
		p := openapi3.NewQueryParameter(qp.Name).
			WithSchema(schemaForParamType(qp.Type)).
			WithRequired(qp.Required).
			WithDescription(qp.Description)
		op.AddParameter(p)
	}

	if r.RequestBodySchema != nil {
		schema, err := schemaFromJSON(r.RequestBodySchema)
		if err != nil {
			return nil, err
		}
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithJSONSchema(schema),
		}
	}

	op.Responses = &openapi3.Responses{}
	if c := r.Conditional; c != nil {
		// The false branch goes first so a shared status keeps the true example.
		falseBody, falseStatus := c.Branch(false, r.StatusCode)
		addExampleResponse(op, falseStatus, falseBody)
		trueBody, trueStatus := c.Branch(true, r.StatusCode)
		addExampleResponse(op, trueStatus, trueBody)
		op.Extensions[ExtCondition] = c.Condition
	} else {
		addExampleResponse(op, r.StatusCode, r.ResponseBody)
	}

	if r.WebhookURL != "" {
		op.Extensions[ExtWebhook] = r.WebhookURL
	}
	return op, nil
}

func addExampleResponse(op *openapi3.Operation, status int, body any) {
	resp := openapi3.NewResponse().WithDescription(statusDescription(status))
	if body != nil {
		resp.Content = openapi3.Content{
			"application/json": &openapi3.MediaType{Example: body},
		}
	}
	op.AddResponse(status, resp)
}

func statusDescription(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Status " + strconv.Itoa(status)
}

func schemaForParamType(t string) *openapi3.Schema {
	switch strings.ToLower(t) {
	case "number":
		return openapi3.NewFloat64Schema()
	case "integer", "int":
		return openapi3.NewIntegerSchema()
	case "boolean", "bool":
		return openapi3.NewBoolSchema()
	default:
		return openapi3.NewStringSchema()
	}
}

// schemaFromJSON converts an arbitrary JSON Schema value.
func schemaFromJSON(v any) (*openapi3.Schema, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	schema := openapi3.NewSchema()
	if err := json.Unmarshal(data, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// addResource adds the component schema and the generic endpoints of d.
func addResource(doc *openapi3.T, d *catalog.ResourceDefinition) {
	doc.Components.Schemas[d.Name] = resourceSchema(d).NewRef()
	ref := openapi3.NewSchemaRef("#/components/schemas/"+d.Name, nil)
	input := resourceInputSchema(d)
	base := pascal(d.Name)
	tags := []string{d.Name}

	collection := pathItem(doc, "/"+d.Name)
	item := pathItem(doc, "/"+d.Name+"/{id}")

	setIfAbsent(collection, http.MethodGet, func() *openapi3.Operation {
		op := resourceOperation("list"+base, "List "+d.Name, tags)
		for _, p := range listParameters(d) {
			op.AddParameter(p)
		}
		page := openapi3.NewArraySchema()
		page.Items = ref
		envelope := openapi3.NewObjectSchema().
			WithProperty("data", page).
			WithProperty("pagination", paginationSchema())
		op.AddResponse(http.StatusOK, jsonResponse("A page of "+d.Name, envelope.NewRef()))
		addNoData(op, d.Name)
		return op
	})
	setIfAbsent(collection, http.MethodPost, func() *openapi3.Operation {
		op := resourceOperation("create"+base, "Create a "+singular(d.Name), tags)
		op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithJSONSchemaRef(input.NewRef())}
		op.AddResponse(http.StatusCreated, jsonResponse("Created", ref))
		addNoData(op, d.Name)
		return op
	})

	itemOp := func(id, summary string) *openapi3.Operation {
		op := resourceOperation(id, summary, tags)
		op.AddParameter(openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema()))
		return op
	}
	setIfAbsent(item, http.MethodGet, func() *openapi3.Operation {
		op := itemOp("get"+base, "Get a "+singular(d.Name))
		op.AddResponse(http.StatusOK, jsonResponse("The record", ref))
		addItemNotFound(op)
		return op
	})
	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		setIfAbsent(item, method, func() *openapi3.Operation {
			verb := "update"
			if method == http.MethodPatch {
				verb = "patch"
			}
			op := itemOp(verb+base, "Merge fields into a "+singular(d.Name))
			op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithJSONSchemaRef(input.NewRef())}
			op.AddResponse(http.StatusOK, jsonResponse("The updated record", ref))
			addItemNotFound(op)
			return op
		})
	}
	setIfAbsent(item, http.MethodDelete, func() *openapi3.Operation {
		op := itemOp("delete"+base, "Delete a "+singular(d.Name))
		success := openapi3.NewObjectSchema().WithProperty("success", openapi3.NewBoolSchema())
		op.AddResponse(http.StatusOK, jsonResponse("Deleted", success.NewRef()))
		addItemNotFound(op)
		return op
	})
}

func setIfAbsent(item *openapi3.PathItem, method string, build func() *openapi3.Operation) {
	if item.GetOperation(method) != nil {
		return
	}
	item.SetOperation(method, build())
}

func resourceOperation(id, summary string, tags []string) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = id
	op.Summary = summary
	op.Tags = tags
	op.Responses = &openapi3.Responses{}
	return op
}

func jsonResponse(description string, schema *openapi3.SchemaRef) *openapi3.Response {
	return openapi3.NewResponse().
		WithDescription(description).
		WithContent(openapi3.NewContentWithJSONSchemaRef(schema))
}

func errorSchema() *openapi3.SchemaRef {
	return openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		NewRef()
}

func addNoData(op *openapi3.Operation, name string) {
	op.AddResponse(http.StatusNotFound, jsonResponse("No data generated for "+name+" yet", errorSchema()))
}

func addItemNotFound(op *openapi3.Operation) {
	op.AddResponse(http.StatusNotFound, jsonResponse("Item not found, or no data yet", errorSchema()))
}

func paginationSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("page", openapi3.NewIntegerSchema()).
		WithProperty("limit", openapi3.NewIntegerSchema()).
		WithProperty("total", openapi3.NewIntegerSchema()).
		WithProperty("totalPages", openapi3.NewIntegerSchema())
}

func listParameters(d *catalog.ResourceDefinition) []*openapi3.Parameter {
	params := []*openapi3.Parameter{
		openapi3.NewQueryParameter(query.ParamPage).WithSchema(openapi3.NewIntegerSchema().WithMin(1)).
			WithDescription("1-based page number"),
		openapi3.NewQueryParameter(query.ParamLimit).WithSchema(openapi3.NewIntegerSchema().WithMin(1)).
			WithDescription("Page size, default " + strconv.Itoa(query.DefaultLimit)),
		openapi3.NewQueryParameter(query.ParamSort).WithSchema(openapi3.NewStringSchema()).
			WithDescription("Comma-separated sort fields"),
		openapi3.NewQueryParameter(query.ParamOrder).WithSchema(openapi3.NewStringSchema()).
			WithDescription("Comma-separated asc or desc, one per sort field"),
		openapi3.NewQueryParameter(query.ParamSearch).WithSchema(openapi3.NewStringSchema()).
			WithDescription("Case-insensitive substring search over every field"),
		openapi3.NewQueryParameter(query.ParamEmbed).WithSchema(openapi3.NewStringSchema()).
			WithDescription("Child resources to embed"),
		openapi3.NewQueryParameter(query.ParamExpand).WithSchema(openapi3.NewStringSchema()).
			WithDescription("Parent resources to expand"),
	}
	for _, f := range d.Fields {
		params = append(params, openapi3.NewQueryParameter(f.Name).
			WithSchema(openapi3.NewStringSchema()).
			WithDescription("Filter on "+f.Name+"; also "+f.Name+"_gte, _lte, _gt, _lt and _ne"))
	}
	return params
}

// resourceSchema describes a stored record.
func resourceSchema(d *catalog.ResourceDefinition) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.Description = d.Description
	s.WithProperty(record.FieldID, openapi3.NewStringSchema())
	required := []string{record.FieldID}
	for _, f := range d.Fields {
		if f.Name == record.FieldID || f.Name == record.FieldCreatedAt {
			continue
		}
		s.WithProperty(f.Name, fieldSchema(f))
		if f.Required {
			required = append(required, f.Name)
		}
	}
	s.WithProperty(record.FieldCreatedAt, openapi3.NewDateTimeSchema())
	s.Required = append(required, record.FieldCreatedAt)
	return s
}

// resourceInputSchema describes a create or update body. The server assigns
// id and createdAt.
func resourceInputSchema(d *catalog.ResourceDefinition) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	for _, f := range d.Fields {
		if f.Name == record.FieldID || f.Name == record.FieldCreatedAt {
			continue
		}
		s.WithProperty(f.Name, fieldSchema(f))
	}
	return s
}

func fieldSchema(f catalog.FieldSpec) *openapi3.Schema {
	var s *openapi3.Schema
	switch f.Type {
	case catalog.FieldNumber:
		s = openapi3.NewFloat64Schema()
	case catalog.FieldBoolean:
		s = openapi3.NewBoolSchema()
	case catalog.FieldDate:
		s = openapi3.NewDateTimeSchema()
	case catalog.FieldEmail:
		s = openapi3.NewStringSchema().WithFormat("email")
	case catalog.FieldUUID:
		s = openapi3.NewUUIDSchema()
	case catalog.FieldImage:
		s = openapi3.NewStringSchema().WithFormat("uri")
	case catalog.FieldRelation:
		s = openapi3.NewStringSchema().WithNullable()
		s.Description = "id of a " + singular(f.RelationTo) + " record"
	default:
		s = openapi3.NewStringSchema()
	}
	if f.Generator != "" {
		s.Extensions = map[string]any{"x-mockapi-generator": f.Generator}
	}
	return s
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// pascal turns a resource name such as "order-items" into "OrderItems".
func pascal(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		parts[i] = titleCaser.String(p)
	}
	return strings.Join(parts, "")
}

func singular(name string) string {
	if len(name) > 1 && strings.HasSuffix(name, "s") {
		return name[:len(name)-1]
	}
	return name
}
