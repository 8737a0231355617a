package portability

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/record"
)

func exportCatalog() *catalog.Catalog {
	c := &catalog.Catalog{
		Routes: []*catalog.RouteDefinition{
			{
				ID: "order-status", Name: "Order status", Method: "get", Path: "/orders/:orderId/status",
				QueryParams:  []catalog.QueryParam{{Name: "verbose", Type: "boolean"}},
				ResponseBody: map[string]any{"status": "shipped"},
				WebhookURL:   "http://hooks.example.com/orders",
			},
			{
				ID: "login", Method: "POST", Path: "/login",
				RequestBodySchema: map[string]any{
					"type":       "object",
					"required":   []any{"user"},
					"properties": map[string]any{"user": map[string]any{"type": "string"}},
				},
				Conditional: &catalog.ConditionalResponse{
					Condition:         catalog.Condition{Type: catalog.ConditionBody, Key: "user", Operator: catalog.OpEquals, Value: "admin"},
					ResponseIfTrue:    map[string]any{"token": "abc"},
					ResponseIfFalse:   map[string]any{"error": "denied"},
					StatusCodeIfFalse: http.StatusUnauthorized,
				},
			},
			{ID: "list-users", Method: "GET", Path: "/users", ResponseBody: []any{}},
		},
		Resources: []*catalog.ResourceDefinition{
			{Name: "users", Fields: []catalog.FieldSpec{
				{Name: "name", Type: catalog.FieldString, Generator: "fullName", Required: true},
				{Name: "email", Type: catalog.FieldEmail},
				{Name: "age", Type: catalog.FieldNumber},
			}},
			{Name: "order-items", Fields: []catalog.FieldSpec{
				{Name: "userId", Type: catalog.FieldRelation, RelationTo: "users"},
				{Name: "shippedAt", Type: catalog.FieldDate},
			}},
		},
	}
	c.Normalize()
	return c
}

func TestBuildOpenAPI(t *testing.T) {
	c := exportCatalog()
	doc, err := BuildOpenAPI(c.Routes, c.Resources, ExportOptions{Title: "Shop", ServerURL: "http://localhost:4280/api/v1"})
	require.NoError(t, err)

	require.NoError(t, doc.Validate(context.Background(), openapi3.DisableExamplesValidation()))
	assert.Equal(t, OpenAPIVersion, doc.OpenAPI)
	assert.Equal(t, "Shop", doc.Info.Title)
	assert.Equal(t, "http://localhost:4280/api/v1", doc.Servers[0].URL)

	t.Run("custom route", func(t *testing.T) {
		item := doc.Paths.Value("/orders/{orderId}/status")
		require.NotNil(t, item)
		op := item.Get
		require.NotNil(t, op)
		assert.Equal(t, "order-status", op.OperationID)
		assert.Equal(t, "Order status", op.Summary)
		require.Len(t, op.Parameters, 2)
		assert.Equal(t, "orderId", op.Parameters[0].Value.Name)
		assert.Equal(t, openapi3.ParameterInPath, op.Parameters[0].Value.In)
		assert.Equal(t, "verbose", op.Parameters[1].Value.Name)
		assert.True(t, op.Parameters[1].Value.Schema.Value.Type.Is(openapi3.TypeBoolean))

		resp := op.Responses.Status(http.StatusOK)
		require.NotNil(t, resp)
		assert.Equal(t, map[string]any{"status": "shipped"}, resp.Value.Content.Get("application/json").Example)
		assert.Equal(t, "http://hooks.example.com/orders", op.Extensions[ExtWebhook])
	})

	t.Run("conditional route lists both branches", func(t *testing.T) {
		op := doc.Paths.Value("/login").Post
		require.NotNil(t, op)
		require.NotNil(t, op.RequestBody)
		schema := op.RequestBody.Value.Content.Get("application/json").Schema.Value
		assert.Equal(t, []string{"user"}, schema.Required)

		ok := op.Responses.Status(http.StatusOK)
		denied := op.Responses.Status(http.StatusUnauthorized)
		require.NotNil(t, ok)
		require.NotNil(t, denied)
		assert.Equal(t, map[string]any{"token": "abc"}, ok.Value.Content.Get("application/json").Example)
		assert.Equal(t, map[string]any{"error": "denied"}, denied.Value.Content.Get("application/json").Example)
		assert.Contains(t, op.Extensions, ExtCondition)
	})

	t.Run("resource endpoints", func(t *testing.T) {
		collection := doc.Paths.Value("/users")
		require.NotNil(t, collection)
		assert.Equal(t, "list-users", collection.Get.OperationID, "custom route owns GET /users")
		require.NotNil(t, collection.Post)
		assert.Equal(t, "createUsers", collection.Post.OperationID)

		item := doc.Paths.Value("/users/{id}")
		require.NotNil(t, item)
		for method, want := range map[string]string{
			http.MethodGet: "getUsers", http.MethodPut: "updateUsers",
			http.MethodPatch: "patchUsers", http.MethodDelete: "deleteUsers",
		} {
			op := item.GetOperation(method)
			require.NotNil(t, op, method)
			assert.Equal(t, want, op.OperationID)
			assert.NotNil(t, op.Responses.Status(http.StatusNotFound))
		}

		list := doc.Paths.Value("/order-items").Get
		require.NotNil(t, list)
		assert.Equal(t, "listOrderItems", list.OperationID)
		var names []string
		for _, p := range list.Parameters {
			names = append(names, p.Value.Name)
		}
		assert.Contains(t, names, "_page")
		assert.Contains(t, names, "_expand")
		assert.Contains(t, names, "userId")
	})

	t.Run("component schemas", func(t *testing.T) {
		users := doc.Components.Schemas["users"].Value
		require.NotNil(t, users)
		assert.Equal(t, []string{"id", "name", "createdAt"}, users.Required)
		assert.Equal(t, "email", users.Properties["email"].Value.Format)
		assert.True(t, users.Properties["age"].Value.Type.Is(openapi3.TypeNumber))
		assert.Equal(t, "date-time", users.Properties["createdAt"].Value.Format)

		items := doc.Components.Schemas["order-items"].Value
		assert.True(t, items.Properties["userId"].Value.Nullable)
		assert.Equal(t, "date-time", items.Properties["shippedAt"].Value.Format)
	})
}

func TestExportOpenAPI_Encodings(t *testing.T) {
	c := exportCatalog()

	data, err := ExportOpenAPI(c.Routes, c.Resources, ExportOptions{})
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "3.0.3", decoded["openapi"])
	assert.Equal(t, "Mock API", decoded["info"].(map[string]any)["title"])

	yamlData, err := ExportOpenAPI(c.Routes, c.Resources, ExportOptions{AsYAML: true})
	require.NoError(t, err)
	assert.Contains(t, string(yamlData), "openapi: 3.0.3")
	assert.Equal(t, FormatOpenAPI, DetectFormat(yamlData, "api.yaml"))

	imported, err := ImportOpenAPI(yamlData)
	require.NoError(t, err)
	assert.NotEmpty(t, imported.Routes)
}

func TestExportOpenAPI_BadRequestSchema(t *testing.T) {
	routes := []*catalog.RouteDefinition{{
		ID: "bad", Method: "POST", Path: "/bad", StatusCode: 200,
		RequestBodySchema: map[string]any{"properties": "nope"},
	}}
	_, err := ExportOpenAPI(routes, nil, ExportOptions{})
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, FormatOpenAPI, exportErr.Format)
}

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
paths:
  /pets:
    get:
      operationId: listPets
      summary: List pets
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
      responses:
        "200":
          description: ok
          content:
            application/json:
              example:
                - id: 1
                  name: Rex
    post:
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /pets/{petId}:
    delete:
      operationId: deletePet
      responses:
        "204":
          description: gone
    get:
      operationId: getPet
      responses:
        "404":
          description: missing
components:
  schemas:
    Pet:
      type: object
      properties:
        id:
          type: integer
        name:
          type: string
          example: Rex
        tags:
          type: array
          items:
            type: string
        born:
          type: string
          format: date
`

func TestImportOpenAPI(t *testing.T) {
	assert.Equal(t, FormatOpenAPI, DetectFormat([]byte(petstore), "petstore.yaml"))

	c, err := ImportOpenAPI([]byte(petstore))
	require.NoError(t, err)
	require.Len(t, c.Routes, 4)

	byID := make(map[string]*catalog.RouteDefinition)
	for _, r := range c.Routes {
		byID[r.ID] = r
	}

	list := byID["listPets"]
	require.NotNil(t, list)
	assert.Equal(t, "GET", list.Method)
	assert.Equal(t, "/pets", list.Path)
	assert.Equal(t, 200, list.StatusCode)
	assert.Equal(t, []any{map[string]any{"id": 1.0, "name": "Rex"}}, list.ResponseBody)
	assert.Equal(t, []catalog.QueryParam{{Name: "limit", Type: "integer"}}, list.QueryParams)

	create := byID["post-pets"]
	require.NotNil(t, create, "ids fall back to a slug of method and path")
	assert.Equal(t, 201, create.StatusCode)
	assert.Equal(t, map[string]any{
		"id":   1.0,
		"name": "Rex",
		"tags": []any{"string"},
		"born": "2024-01-01",
	}, create.ResponseBody)
	require.NotNil(t, create.RequestBodySchema)
	assert.Equal(t, "object", create.RequestBodySchema.(map[string]any)["type"])

	del := byID["deletePet"]
	require.NotNil(t, del)
	assert.Equal(t, "/pets/:petId", del.Path)
	assert.Equal(t, 204, del.StatusCode)
	assert.Nil(t, del.ResponseBody)

	get := byID["getPet"]
	require.NotNil(t, get)
	assert.Equal(t, 404, get.StatusCode)
	assert.Equal(t, map[string]any{"error": "Not Found"}, get.ResponseBody)

	assert.NoError(t, catalog.ValidateCatalog(c).Err())
}

func TestImportOpenAPI_Invalid(t *testing.T) {
	_, err := ImportOpenAPI([]byte("not: [valid"))
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, FormatOpenAPI, importErr.Format)
}

func TestNative_RoundTrip(t *testing.T) {
	c := exportCatalog()
	c.Records = map[string][]*record.Record{
		"users": {record.FromMap(map[string]any{"id": "1", "name": "Ada"})},
	}
	c.Generate = map[string]int{"order-items": 3}

	for _, asYAML := range []bool{false, true} {
		data, err := ExportNative(c, asYAML)
		require.NoError(t, err)
		filename := "catalog.json"
		if asYAML {
			filename = "catalog.yaml"
		}
		assert.Equal(t, FormatNative, DetectFormat(data, filename))

		back, err := ImportNative(data)
		require.NoError(t, err)
		assert.Len(t, back.Routes, 3)
		assert.Equal(t, "GET", back.Routes[0].Method)
		assert.Equal(t, []string{"users", "order-items"}, catalog.ResourceNames(back.Resources))
		assert.Equal(t, "Ada", back.Records["users"][0].Value("name"))
		assert.Equal(t, 3, back.Generate["order-items"])
	}

	_, err := ExportNative(nil, false)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatOpenAPI, ParseFormat("OpenAPI"))
	assert.Equal(t, FormatNative, ParseFormat("native"))
	assert.Equal(t, FormatUnknown, ParseFormat("har"))
	assert.Equal(t, FormatUnknown, DetectFormat([]byte("{}"), "x.json"))
	assert.Equal(t, FormatUnknown, DetectFormat(nil, "x.json"))
}

func TestPathConversion(t *testing.T) {
	assert.Equal(t, "/users/{id}/orders/{orderId}", toOpenAPIPath("/users/:id/orders/:orderId"))
	assert.Equal(t, "/users/:id/orders/:orderId", fromOpenAPIPath("/users/{id}/orders/{orderId}"))
}
