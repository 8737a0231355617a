// Package testing provides a testing SDK for using mockapi in Go tests.
//
// It starts an in-process mock API server on an httptest listener and
// offers a fluent builder for custom routes and generated resources.
//
// # Basic Usage
//
//	func TestClient(t *testing.T) {
//	    mock := testing.New(t)
//
//	    mock.Route("GET", "/users/:id").
//	        WithStatus(200).
//	        WithBody(map[string]any{"id": "{id}", "name": "Ada"}).
//	        Reply()
//
//	    url := mock.Start()
//
//	    resp, err := http.Get(url + "/users/42")
//	    // ...
//
//	    mock.AssertCalled(t, "GET", "/users/42")
//	}
//
// The server stops when the test completes. Stop may also be called directly.
//
// # Conditional Responses
//
// A route can pick between two bodies based on the request:
//
//	mock.Route("GET", "/orders/:id").
//	    WhenHeader("X-Tier", catalog.OpEquals, "gold").
//	    Then(map[string]any{"discount": 10}, 200).
//	    Otherwise(map[string]any{"discount": 0}, 200).
//	    Reply()
//
// WhenDependent calls another route with the same method first and tests a
// field of its response. Its path parameters come from the request:
//
//	mock.Route("POST", "/accounts/:accountId").WithID("account").
//	    WithBody(map[string]any{"active": true}).
//	    Reply()
//	mock.Route("POST", "/orders").
//	    WhenDependent("account", "active", catalog.OpEquals, true).
//	    Then(map[string]any{"accepted": true}, 201).
//	    Otherwise(map[string]any{"accepted": false}, 403).
//	    Reply()
//
// # Resources
//
// Resources get list, get, create, update, patch and delete endpoints with
// filtering, search, sorting, pagination and relation embedding:
//
//	mock.Resource("users").
//	    Field("name", catalog.FieldString, "fullName").
//	    Generate(20).
//	    Add()
//	mock.Resource("posts").
//	    Field("title", catalog.FieldString, "sentence").
//	    Relation("userId", "users").
//	    Records(map[string]any{"id": "p1", "title": "Hello", "userId": "u1"}).
//	    Add()
//
//	// GET {url}/users?_sort=name&_limit=5
//	// GET {url}/users/u1?_embed=posts
//
// # Request Verification
//
// Every request that reaches the dispatcher is journaled:
//
//	mock.AssertCalled(t, "POST", "/orders")
//	mock.AssertCalledTimes(t, "GET", "/users", 2)
//	mock.AssertNotCalled(t, "DELETE", "/users/u1")
//	mock.LastRequest().AssertJSONField(t, "items.0.sku", "A-1")
//	mock.AssertRecordCount(t, "users", 21)
package testing
