package testing

import (
	"context"
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/getmockd/mockapi/internal/matching"
)

// RequestLog represents a journaled HTTP request for assertions.
type RequestLog struct {
	// Method is the HTTP method (GET, POST, etc.)
	Method string
	// Path is the request path below the dispatcher prefix
	Path string
	// Headers are the request headers (first value per key)
	Headers map[string]string
	// Body is the request body content
	Body string
	// QueryString is the raw query string
	QueryString string
	// Status is the response status code
	Status    int
	Timestamp time.Time
}

// AssertCalled asserts that at least one request hit method and path.
func (m *MockServer) AssertCalled(t testing.TB, method, path string) {
	t.Helper()
	if len(m.RequestsTo(method, path)) == 0 {
		t.Errorf("expected %s %s to be called, journal:\n%s", method, path, m.describeJournal())
	}
}

// AssertNotCalled asserts that no request hit method and path.
func (m *MockServer) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()
	if n := len(m.RequestsTo(method, path)); n > 0 {
		t.Errorf("expected %s %s not to be called, got %d calls", method, path, n)
	}
}

// AssertCalledTimes asserts the exact number of requests to method and path.
func (m *MockServer) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()
	if n := len(m.RequestsTo(method, path)); n != times {
		t.Errorf("expected %s %s to be called %d times, got %d", method, path, times, n)
	}
}

// AssertRecordCount asserts the size of a resource collection.
func (m *MockServer) AssertRecordCount(t testing.TB, resource string, count int) {
	t.Helper()
	st := m.Store()
	if st == nil {
		t.Errorf("mock server is not running")
		return
	}
	recs, err := st.GetRecords(context.Background(), resource)
	if err != nil {
		t.Errorf("records for %q: %v", resource, err)
		return
	}
	if len(recs) != count {
		t.Errorf("expected %d %s records, got %d", count, resource, len(recs))
	}
}

func (m *MockServer) describeJournal() string {
	reqs := m.Requests()
	if len(reqs) == 0 {
		return "  (no requests)"
	}
	var b strings.Builder
	for _, r := range reqs {
		b.WriteString("  ")
		b.WriteString(r.Method)
		b.WriteByte(' ')
		b.WriteString(r.Path)
		if r.QueryString != "" {
			b.WriteByte('?')
			b.WriteString(r.QueryString)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// AssertJSONBody asserts that the request body matches the expected JSON.
// The expected value can be a string, []byte, or any struct/map that will be JSON encoded.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var expectedJSON, actualJSON any
	switch v := expected.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	case []byte:
		if err := json.Unmarshal(v, &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		_ = json.Unmarshal(data, &expectedJSON)
	}

	if err := json.Unmarshal([]byte(r.Body), &actualJSON); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(expectedBytes), string(actualBytes))
	}
}

// AssertHeader asserts that the request had the specified header with the expected value.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	actual, ok := r.header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

func (r *RequestLog) header(key string) (string, bool) {
	if v, ok := r.Headers[key]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// AssertQueryParam asserts that the request had the specified query parameter.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	params, err := url.ParseQuery(r.QueryString)
	if err != nil {
		t.Errorf("invalid query string %q: %v", r.QueryString, err)
		return
	}
	if !params.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := params.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// JSONField extracts a field from the request body JSON using a dot path
// such as "items.0.sku", or a JSONPath starting with "$".
// Returns nil if the body is not valid JSON or the field doesn't exist.
func (r *RequestLog) JSONField(field string) any {
	var data any
	if err := json.Unmarshal([]byte(r.Body), &data); err != nil {
		return nil
	}
	v, _ := matching.Lookup(data, field)
	return v
}

// AssertJSONField asserts that a JSON field in the request body has the expected value.
func (r *RequestLog) AssertJSONField(t testing.TB, field string, expected any) {
	t.Helper()

	actual := r.JSONField(field)
	if actual == nil {
		t.Errorf("JSON field %q not found in request body: %s", field, r.Body)
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			field, expected, expected, actual, actual)
	}
}
