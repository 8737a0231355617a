package matching

import (
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/getmockd/mockapi/pkg/catalog"
)

// Template is a compiled route template.
type Template struct {
	raw      string
	segments []string
	// params[i] is the parameter name bound by segment i, or "".
	params []string
}

// Compile splits a template into segments.
func Compile(template string) *Template {
	segs := splitPath(template)
	t := &Template{raw: template, segments: segs, params: make([]string, len(segs))}
	for i, s := range segs {
		if len(s) > 1 && s[0] == ':' {
			t.params[i] = s[1:]
		}
	}
	return t
}

// String returns the source template.
func (t *Template) String() string {
	return t.raw
}

// Match reports whether the escaped path fits the template and returns the
// bound parameters, URL-decoded once. Literal segments compare decoded, so
// "%2F" inside a segment never splits it.
func (t *Template) Match(path string) (map[string]string, bool) {
	segs := splitPath(path)
	if len(segs) != len(t.segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range segs {
		if name := t.params[i]; name != "" {
			params[name] = Unescape(seg)
			continue
		}
		if seg != t.segments[i] && Unescape(seg) != t.segments[i] {
			return nil, false
		}
	}
	return params, true
}

// ParamNames returns the parameter names in template order.
func (t *Template) ParamNames() []string {
	var names []string
	for _, p := range t.params {
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Prefix returns the template truncated before its first parameter segment.
// "/users/:id/orders" yields "/users"; a template without parameters is
// returned whole.
func (t *Template) Prefix() string {
	for i, p := range t.params {
		if p != "" {
			return "/" + strings.Join(t.segments[:i], "/")
		}
	}
	return "/" + strings.Join(t.segments, "/")
}

// Expand substitutes values into the parameter segments. Names without a
// value are left in place and returned as missing.
func (t *Template) Expand(values map[string]string) (path string, missing []string) {
	out := make([]string, len(t.segments))
	for i, seg := range t.segments {
		name := t.params[i]
		if name == "" {
			out[i] = seg
			continue
		}
		v, ok := values[name]
		if !ok {
			missing = append(missing, name)
			out[i] = seg
			continue
		}
		out[i] = url.PathEscape(v)
	}
	return "/" + strings.Join(out, "/"), missing
}

// MatchPath matches one template against one path.
// Identical strings match without compiling the template.
func MatchPath(template, path string) (map[string]string, bool) {
	if template == path {
		return map[string]string{}, true
	}
	return Compile(template).Match(path)
}

// Matcher matches against many templates and caches their compiled form.
type Matcher struct {
	mu       sync.RWMutex
	cache    map[string]*Template
	compiles atomic.Int64
}

// NewMatcher creates a Matcher with an empty cache.
func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[string]*Template)}
}

// Template returns the compiled form of template, compiling it once.
func (m *Matcher) Template(template string) *Template {
	m.mu.RLock()
	t, ok := m.cache[template]
	m.mu.RUnlock()
	if ok {
		return t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.cache[template]; ok {
		return t
	}
	t = Compile(template)
	m.cache[template] = t
	m.compiles.Add(1)
	return t
}

// Compiles returns how many templates have been compiled so far.
func (m *Matcher) Compiles() int64 {
	return m.compiles.Load()
}

// Match is MatchPath with a cached template.
func (m *Matcher) Match(template, path string) (map[string]string, bool) {
	if template == path {
		return map[string]string{}, true
	}
	return m.Template(template).Match(path)
}

// FindRoute returns the route serving method and path, with its parameters.
//
// Only routes declaring the request method are considered. A route whose
// template equals the path literally wins outright; otherwise the first
// templated match in catalog order wins.
func (m *Matcher) FindRoute(routes []*catalog.RouteDefinition, method, path string) (*catalog.RouteDefinition, map[string]string) {
	for _, r := range routes {
		if r != nil && strings.EqualFold(r.Method, method) && r.Path == path {
			return r, map[string]string{}
		}
	}
	for _, r := range routes {
		if r == nil || !strings.EqualFold(r.Method, method) {
			continue
		}
		if params, ok := m.Template(r.Path).Match(path); ok {
			return r, params
		}
	}
	return nil, nil
}

// Unescape decodes one escaped path segment. Malformed escapes are kept as is.
func Unescape(seg string) string {
	if decoded, err := url.PathUnescape(seg); err == nil {
		return decoded
	}
	return seg
}

// Segments splits an escaped request path into its non-leading segments,
// still escaped.
// "/users/42" yields ["users", "42"]; "/" yields [].
func Segments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}
