package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRoute() *RouteDefinition {
	return &RouteDefinition{
		ID:           "r1",
		Method:       "GET",
		Path:         "/users/:id",
		StatusCode:   200,
		ResponseBody: map[string]any{"ok": true},
	}
}

func TestRouteDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *RouteDefinition)
		wantErr string
	}{
		{name: "valid", mutate: func(*RouteDefinition) {}},
		{name: "lowercase method is accepted", mutate: func(r *RouteDefinition) { r.Method = "post" }},
		{name: "missing id", mutate: func(r *RouteDefinition) { r.ID = "" }, wantErr: "id: is required"},
		{name: "bad method", mutate: func(r *RouteDefinition) { r.Method = "TRACE" }, wantErr: `unsupported method "TRACE"`},
		{name: "relative path", mutate: func(r *RouteDefinition) { r.Path = "users" }, wantErr: "must start with /"},
		{name: "unnamed param", mutate: func(r *RouteDefinition) { r.Path = "/users/:" }, wantErr: "parameter segment needs a name"},
		{name: "bad status", mutate: func(r *RouteDefinition) { r.StatusCode = 42 }, wantErr: "invalid status code 42"},
		{
			name: "bad schema",
			mutate: func(r *RouteDefinition) {
				r.RequestBodySchema = map[string]any{"type": 12}
			},
			wantErr: "requestBodySchema",
		},
		{
			name: "valid schema",
			mutate: func(r *RouteDefinition) {
				r.RequestBodySchema = map[string]any{
					"type":       "object",
					"properties": map[string]any{"name": map[string]any{"type": "string"}},
				}
			},
		},
		{
			name: "bad condition operator",
			mutate: func(r *RouteDefinition) {
				r.Conditional = &ConditionalResponse{Condition: Condition{Type: ConditionQuery, Key: "vip", Operator: "like"}}
			},
			wantErr: `unsupported operator "like"`,
		},
		{
			name: "bad branch status",
			mutate: func(r *RouteDefinition) {
				r.Conditional = &ConditionalResponse{
					Condition:        Condition{Type: ConditionQuery, Key: "vip", Operator: OpExists},
					StatusCodeIfTrue: 1000,
				}
			},
			wantErr: "invalid status code 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRoute()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCondition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr bool
	}{
		{name: "header", cond: Condition{Type: ConditionHeader, Key: "X-Tier", Operator: OpEquals, Value: "gold"}},
		{name: "header without key", cond: Condition{Type: ConditionHeader, Operator: OpEquals}, wantErr: true},
		{name: "body with empty key", cond: Condition{Type: ConditionBody, Operator: OpExists}},
		{name: "dependent", cond: Condition{Type: ConditionDependentAPI, DependentAPIID: "r2", Operator: OpEquals, Value: 1}},
		{name: "dependent without id", cond: Condition{Type: ConditionDependentAPI, Operator: OpEquals}, wantErr: true},
		{name: "dependent without operator", cond: Condition{Type: ConditionDependentAPI, DependentAPIID: "r2"}},
		{name: "expression", cond: Condition{Type: ConditionExpression, Expression: `query.vip == "true"`}},
		{name: "empty expression", cond: Condition{Type: ConditionExpression, Expression: "  "}, wantErr: true},
		{name: "unknown type", cond: Condition{Type: "cookie", Key: "a", Operator: OpEquals}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResourceDefinition_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d := &ResourceDefinition{Name: "order_items", Fields: []FieldSpec{
			{Name: "title", Type: FieldString},
			{Name: "userId", Type: FieldRelation, RelationTo: "users"},
		}}
		assert.NoError(t, d.Validate())
	})

	t.Run("bad name", func(t *testing.T) {
		for _, name := range []string{"", "Users", "1users", "users/orders"} {
			d := &ResourceDefinition{Name: name}
			assert.Error(t, d.Validate(), name)
		}
	})

	t.Run("field problems are joined", func(t *testing.T) {
		d := &ResourceDefinition{Name: "users", Fields: []FieldSpec{
			{Name: "a", Type: "blob"},
			{Name: "a", Type: FieldString},
			{Name: "owner", Type: FieldRelation},
		}}
		err := d.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported type "blob"`)
		assert.Contains(t, err.Error(), `duplicate field "a"`)
		assert.Contains(t, err.Error(), "relation fields need relationTo")
	})
}

func TestValidateCatalog(t *testing.T) {
	c := &Catalog{
		Routes: []*RouteDefinition{
			validRoute(),
			{
				ID: "r2", Method: "GET", Path: "/check", StatusCode: 200,
				Conditional: &ConditionalResponse{
					Condition: Condition{Type: ConditionDependentAPI, DependentAPIID: "missing-id", Operator: OpExists},
				},
			},
			{ID: "r1", Method: "GET", Path: "/dup", StatusCode: 200},
		},
		Resources: []*ResourceDefinition{
			{Name: "posts", Fields: []FieldSpec{{Name: "userId", Type: FieldRelation, RelationTo: "users"}}},
		},
		Generate: map[string]int{"posts": 5, "ghosts": 1},
	}

	rep := ValidateCatalog(c)
	require.Len(t, rep.Errors, 2)
	assert.Contains(t, rep.Err().Error(), "duplicate id")
	assert.Contains(t, rep.Err().Error(), `generate "ghosts": unknown resource`)
	require.Len(t, rep.Warnings, 2)
	assert.Contains(t, rep.Warnings[0], "missing-id")
	assert.Contains(t, rep.Warnings[1], `unknown resource "users"`)
}

func TestValidateCatalog_Empty(t *testing.T) {
	rep := ValidateCatalog(&Catalog{})
	assert.NoError(t, rep.Err())
	assert.Empty(t, rep.Warnings)
}

func TestValidationError_StatusCode(t *testing.T) {
	err := &ValidationError{Kind: "route", ID: "x", Message: "bad"}
	assert.Equal(t, 400, err.StatusCode())
	assert.Equal(t, `route "x": bad`, err.Error())
}
