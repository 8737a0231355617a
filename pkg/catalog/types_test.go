package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockapi/pkg/record"
)

func TestConditionalResponse_Branch(t *testing.T) {
	c := &ConditionalResponse{
		ResponseIfTrue:    map[string]any{"tier": "vip"},
		ResponseIfFalse:   map[string]any{"tier": "basic"},
		StatusCodeIfFalse: 403,
	}

	body, status := c.Branch(true, 200)
	assert.Equal(t, map[string]any{"tier": "vip"}, body)
	assert.Equal(t, 200, status)

	body, status = c.Branch(false, 200)
	assert.Equal(t, map[string]any{"tier": "basic"}, body)
	assert.Equal(t, 403, status)
}

func TestRouteDefinition_Normalize(t *testing.T) {
	r := &RouteDefinition{
		Method:       " patch ",
		ResponseBody: map[string]any{"count": 3},
	}
	r.Normalize()
	assert.Equal(t, "PATCH", r.Method)
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, map[string]any{"count": float64(3)}, r.ResponseBody)
	assert.Equal(t, "PATCH ", r.Signature())
}

func TestCatalog_DecodeJSON(t *testing.T) {
	data := `{
		"routes": [{
			"id": "vip", "method": "get", "path": "/vip", "statusCode": 200,
			"responseBody": null,
			"conditionalResponse": {
				"condition": {"type": "query", "key": "vip", "operator": "equals", "value": "true"},
				"responseIfTrue": {"vip": true},
				"responseIfFalse": {"vip": false}
			}
		}],
		"resources": [{"name": "users", "fields": [{"name": "name", "type": "string"}]}],
		"records": {"users": [{"id": "1", "name": "Ann"}]}
	}`

	var c Catalog
	require.NoError(t, json.Unmarshal([]byte(data), &c))
	c.Normalize()

	require.Len(t, c.Routes, 1)
	assert.Equal(t, "GET", c.Routes[0].Method)
	assert.Nil(t, c.Routes[0].ResponseBody)
	assert.Equal(t, OpEquals, c.Routes[0].Conditional.Condition.Operator)
	assert.Equal(t, "users", c.Resources[0].ID)
	require.Len(t, c.Records["users"], 1)
	assert.Equal(t, "1", c.Records["users"][0].ID())
}

func TestCatalog_DecodeYAML(t *testing.T) {
	data := `
routes:
  - id: health
    method: GET
    path: /health
    statusCode: 200
    responseBody:
      status: up
      checks: 3
resources:
  - name: posts
    fields:
      - name: userId
        type: relation
        relationTo: users
generate:
  posts: 4
`
	var c Catalog
	require.NoError(t, yaml.Unmarshal([]byte(data), &c))
	c.Normalize()

	assert.Equal(t, map[string]any{"status": "up", "checks": float64(3)}, c.Routes[0].ResponseBody)
	assert.Equal(t, FieldRelation, c.Resources[0].Fields[0].Type)
	assert.Equal(t, 4, c.Generate["posts"])
}

func TestCatalog_Merge(t *testing.T) {
	a := &Catalog{Routes: []*RouteDefinition{{ID: "a"}}, Generate: map[string]int{"users": 1}}
	b := &Catalog{
		Routes:    []*RouteDefinition{{ID: "b"}},
		Resources: []*ResourceDefinition{{Name: "users"}},
		Records:   map[string][]*record.Record{"users": {record.New()}},
		Generate:  map[string]int{"users": 2},
	}
	a.Merge(b)
	a.Merge(nil)

	assert.Len(t, a.Routes, 2)
	assert.Equal(t, "b", a.Routes[1].ID)
	assert.Len(t, a.Records["users"], 1)
	assert.Equal(t, 3, a.Generate["users"])
	assert.Equal(t, []string{"users"}, ResourceNames(a.Resources))
	assert.NotNil(t, FindResource(a.Resources, "users"))
	assert.Nil(t, FindResource(a.Resources, "posts"))
}

func TestSlugID(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{"GET", "/users", "get-users"},
		{"GET", "/users/:id", "get-users-id"},
		{"POST", "/pets/{petId}/photos", "post-pets-petid-photos"},
		{"DELETE", "/", "delete"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SlugID(tt.method, tt.path))
	}
}
