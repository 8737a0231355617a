package portability

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

// maxSampleDepth bounds example synthesis for recursive schemas.
const maxSampleDepth = 6

// ImportOpenAPI turns every operation of an OpenAPI 3.x document into a
// custom route. The response is the operation's best success response:
// its example if it has one, otherwise a value synthesized from its schema.
func ImportOpenAPI(data []byte) (*catalog.Catalog, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, &ImportError{Format: FormatOpenAPI, Message: "failed to parse document", Cause: err}
	}
	if doc.OpenAPI == "" || doc.Paths == nil {
		return nil, &ImportError{Format: FormatOpenAPI, Message: "not a valid OpenAPI 3.x document"}
	}

	c := &catalog.Catalog{}
	seen := make(map[string]int)

	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	for _, path := range paths {
		item := doc.Paths.Value(path)
		for _, method := range catalog.Methods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}
			route := operationToRoute(path, method, item, op)
			// Disambiguate duplicate operation ids.
			if n := seen[route.ID]; n > 0 {
				seen[route.ID] = n + 1
				route.ID += "-" + strconv.Itoa(n+1)
			} else {
				seen[route.ID] = 1
			}
			c.Routes = append(c.Routes, route)
		}
	}
	c.Normalize()
	return c, nil
}

func operationToRoute(path, method string, item *openapi3.PathItem, op *openapi3.Operation) *catalog.RouteDefinition {
	r := &catalog.RouteDefinition{
		ID:          op.OperationID,
		Name:        op.Summary,
		Method:      method,
		Path:        fromOpenAPIPath(path),
		Description: op.Description,
	}
	if r.ID == "" {
		r.ID = catalog.SlugID(method, path)
	}

	params := append(slices.Clone(item.Parameters), op.Parameters...)
	for _, ref := range params {
		p := ref.Value
		if p == nil || p.In != openapi3.ParameterInQuery {
			continue
		}
		qp := catalog.QueryParam{Name: p.Name, Required: p.Required, Description: p.Description}
		if p.Schema != nil && p.Schema.Value != nil {
			if types := p.Schema.Value.Type.Slice(); len(types) > 0 {
				qp.Type = types[0]
			}
		}
		r.QueryParams = append(r.QueryParams, qp)
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if mt := op.RequestBody.Value.Content.Get("application/json"); mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
			r.RequestBodySchema = schemaToJSON(mt.Schema.Value)
		}
	}

	status, resp := bestResponse(op.Responses)
	r.StatusCode = status
	r.ResponseBody = responseExample(status, resp)
	return r
}

// bestResponse prefers 200, 201, 202 and 204, then the first 2xx, then
// default, then the first response.
func bestResponse(responses *openapi3.Responses) (int, *openapi3.Response) {
	if responses == nil || responses.Len() == 0 {
		return http.StatusOK, nil
	}
	m := responses.Map()
	value := func(code string) *openapi3.Response {
		if ref := m[code]; ref != nil {
			return ref.Value
		}
		return nil
	}

	for _, code := range []string{"200", "201", "202", "204"} {
		if _, ok := m[code]; ok {
			return parseStatusCode(code), value(code)
		}
	}
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		if strings.HasPrefix(code, "2") {
			return parseStatusCode(code), value(code)
		}
	}
	if _, ok := m["default"]; ok {
		return http.StatusOK, value("default")
	}
	return parseStatusCode(codes[0]), value(codes[0])
}

// parseStatusCode reads "404" or "4XX"; a range maps to its x00 code.
func parseStatusCode(code string) int {
	if n, err := strconv.Atoi(code); err == nil && n >= 100 && n <= 599 {
		return n
	}
	if len(code) == 3 && code[0] >= '1' && code[0] <= '5' {
		return int(code[0]-'0') * 100
	}
	return http.StatusOK
}

func responseExample(status int, resp *openapi3.Response) any {
	if status == http.StatusNoContent {
		return nil
	}
	if resp != nil {
		if mt := jsonMediaType(resp.Content); mt != nil {
			if v, ok := mediaExample(mt); ok {
				return record.Normalize(v)
			}
		}
	}
	return defaultBody(status)
}

func jsonMediaType(content openapi3.Content) *openapi3.MediaType {
	if mt := content.Get("application/json"); mt != nil {
		return mt
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		return content[k]
	}
	return nil
}

func mediaExample(mt *openapi3.MediaType) (any, bool) {
	if mt.Example != nil {
		return mt.Example, true
	}
	if len(mt.Examples) > 0 {
		names := make([]string, 0, len(mt.Examples))
		for name := range mt.Examples {
			names = append(names, name)
		}
		slices.Sort(names)
		if ex := mt.Examples[names[0]]; ex != nil && ex.Value != nil && ex.Value.Value != nil {
			return ex.Value.Value, true
		}
	}
	if mt.Schema != nil && mt.Schema.Value != nil {
		return sampleValue(mt.Schema.Value, 0), true
	}
	return nil, false
}

// sampleValue synthesizes a value that satisfies s as far as practical.
func sampleValue(s *openapi3.Schema, depth int) any {
	if s == nil || depth > maxSampleDepth {
		return nil
	}
	switch {
	case s.Example != nil:
		return s.Example
	case s.Default != nil:
		return s.Default
	case len(s.Enum) > 0:
		return s.Enum[0]
	}
	if s.Type.Slice() == nil {
		if len(s.AllOf) > 0 {
			return sampleAllOf(s.AllOf, depth)
		}
		for _, alt := range [][]*openapi3.SchemaRef{s.OneOf, s.AnyOf} {
			if len(alt) > 0 && alt[0] != nil {
				return sampleValue(alt[0].Value, depth+1)
			}
		}
	}

	switch {
	case s.Type.Is(openapi3.TypeObject) || (s.Type.Slice() == nil && len(s.Properties) > 0):
		return sampleObject(s, depth)
	case s.Type.Is(openapi3.TypeArray):
		if s.Items == nil {
			return []any{}
		}
		return []any{sampleValue(s.Items.Value, depth+1)}
	case s.Type.Is(openapi3.TypeInteger):
		if s.Min != nil {
			return *s.Min
		}
		return 1.0
	case s.Type.Is(openapi3.TypeNumber):
		if s.Min != nil {
			return *s.Min
		}
		return 1.5
	case s.Type.Is(openapi3.TypeBoolean):
		return true
	case s.Type.Is(openapi3.TypeString):
		return sampleString(s.Format)
	}
	return nil
}

func sampleObject(s *openapi3.Schema, depth int) map[string]any {
	out := make(map[string]any, len(s.Properties))
	for name, ref := range s.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		out[name] = sampleValue(ref.Value, depth+1)
	}
	return out
}

func sampleAllOf(refs []*openapi3.SchemaRef, depth int) any {
	out := make(map[string]any)
	for _, ref := range refs {
		if ref == nil || ref.Value == nil {
			continue
		}
		if m, ok := sampleValue(ref.Value, depth+1).(map[string]any); ok {
			for k, v := range m {
				out[k] = v
			}
		}
	}
	return out
}

func sampleString(format string) string {
	switch format {
	case "date-time":
		return "2024-01-01T00:00:00.000Z"
	case "date":
		return "2024-01-01"
	case "email":
		return "user@example.com"
	case "uuid":
		return "00000000-0000-4000-8000-000000000000"
	case "uri", "url":
		return "https://example.com"
	case "ipv4":
		return "192.0.2.1"
	default:
		return "string"
	}
}

// defaultBody is the response used when an operation documents no content.
func defaultBody(status int) any {
	switch status {
	case http.StatusOK:
		return map[string]any{"status": "ok"}
	case http.StatusCreated:
		return map[string]any{"id": "1", "created": true}
	case http.StatusNoContent:
		return nil
	}
	if status >= 400 {
		return map[string]any{"error": http.StatusText(status)}
	}
	return map[string]any{"status": float64(status)}
}

func schemaToJSON(s *openapi3.Schema) any {
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}
