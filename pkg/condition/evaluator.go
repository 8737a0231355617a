package condition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/mockapi/internal/matching"
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

// Defaults for dependent calls.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxDepth = 4
)

// Outcomes reported to a DependentObserver.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// DependentObserver is told the outcome of every dependent evaluation.
type DependentObserver func(outcome string)

// RequestContext is what a condition may inspect about the incoming request.
type RequestContext struct {
	Method string
	// Path is relative to the dispatcher mount point.
	Path   string
	Header http.Header
	Query  url.Values
	// Body is the parsed JSON body, or nil when absent or unparseable.
	Body   any
	Params map[string]string
	// Depth is how many dependent calls led to this request.
	Depth int
}

// Evaluator evaluates conditions. It is safe for concurrent use.
type Evaluator struct {
	routes   store.RouteCatalog
	caller   Caller
	matcher  *matching.Matcher
	timeout  time.Duration
	maxDepth int
	observe  DependentObserver
	log      *slog.Logger

	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCaller sets how dependent routes are called. Without a caller every
// dependent condition is false.
func WithCaller(c Caller) Option {
	return func(e *Evaluator) { e.caller = c }
}

// WithTimeout bounds both dependent calls together.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxDepth sets the dependent nesting limit.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) { e.maxDepth = n }
}

// WithMatcher shares a template cache with the caller.
func WithMatcher(m *matching.Matcher) Option {
	return func(e *Evaluator) {
		if m != nil {
			e.matcher = m
		}
	}
}

// WithObserver registers a DependentObserver.
func WithObserver(fn DependentObserver) Option {
	return func(e *Evaluator) { e.observe = fn }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Evaluator) { e.log = logging.OrNop(log) }
}

// New creates an Evaluator reading dependent routes from routes.
func New(routes store.RouteCatalog, opts ...Option) *Evaluator {
	e := &Evaluator{
		routes:   routes,
		matcher:  matching.NewMatcher(),
		timeout:  DefaultTimeout,
		maxDepth: DefaultMaxDepth,
		log:      logging.Nop(),
		programs: make(map[string]*vm.Program),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate reports whether cond holds for the request. It never fails:
// anything that goes wrong yields false.
func (e *Evaluator) Evaluate(ctx context.Context, cond *catalog.Condition, rc *RequestContext) bool {
	if cond == nil || rc == nil {
		return false
	}
	switch cond.Type {
	case catalog.ConditionHeader:
		vs := rc.Header.Values(cond.Key)
		if len(vs) == 0 {
			return Compare(cond.Operator, nil, false, cond.Value)
		}
		return Compare(cond.Operator, vs[0], true, cond.Value)
	case catalog.ConditionQuery:
		vs, ok := rc.Query[cond.Key]
		if !ok || len(vs) == 0 {
			return Compare(cond.Operator, nil, false, cond.Value)
		}
		return Compare(cond.Operator, vs[0], true, cond.Value)
	case catalog.ConditionBody:
		actual, ok := matching.Lookup(rc.Body, cond.Key)
		return Compare(cond.Operator, actual, ok, cond.Value)
	case catalog.ConditionDependentAPI:
		return e.evaluateDependent(ctx, cond, rc)
	case catalog.ConditionExpression:
		return e.evaluateExpression(cond.Expression, rc)
	default:
		return false
	}
}

// Compare applies op to the actual and expected values. present is false
// when the actual value does not exist at all.
func Compare(op catalog.Operator, actual any, present bool, expected any) bool {
	switch op {
	case catalog.OpExists:
		return present && actual != nil
	case catalog.OpEquals:
		return looseEquals(actual, present, expected)
	case catalog.OpNotEquals:
		return !looseEquals(actual, present, expected)
	case catalog.OpContains:
		s, ok := actual.(string)
		return ok && strings.Contains(s, record.Render(expected))
	case catalog.OpGreaterThan, catalog.OpLessThan:
		if !present {
			return false
		}
		a, okA := record.ToNumber(actual)
		b, okB := record.ToNumber(expected)
		if !okA || !okB {
			return false
		}
		if op == catalog.OpGreaterThan {
			return a > b
		}
		return a < b
	default:
		return false
	}
}

// looseEquals treats a missing value like null: equal only to null.
func looseEquals(actual any, present bool, expected any) bool {
	if !present {
		return expected == nil
	}
	return record.LooseEqual(actual, expected)
}

var (
	errNoCaller        = errors.New("no dependent caller configured")
	errDepthExceeded   = errors.New("dependent call depth exceeded")
	errUnresolvedParam = errors.New("unresolved path parameter")
)

func (e *Evaluator) evaluateDependent(ctx context.Context, cond *catalog.Condition, rc *RequestContext) bool {
	actual, ok, err := e.resolveDependent(ctx, cond, rc)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, errNoCaller) || errors.Is(err, errDepthExceeded) {
			outcome = OutcomeSkipped
		}
		e.report(outcome)
		e.log.Debug("dependent condition evaluated to false",
			"dependentApiId", cond.DependentAPIID,
			"error", err,
		)
		return false
	}
	e.report(OutcomeOK)
	return Compare(cond.Operator, actual, ok, cond.Value)
}

func (e *Evaluator) report(outcome string) {
	if e.observe != nil {
		e.observe(outcome)
	}
}

// resolveDependent calls the dependent route and extracts the actual value.
func (e *Evaluator) resolveDependent(ctx context.Context, cond *catalog.Condition, rc *RequestContext) (any, bool, error) {
	if e.caller == nil {
		return nil, false, errNoCaller
	}
	if rc.Depth >= e.maxDepth {
		return nil, false, errDepthExceeded
	}
	if e.routes == nil {
		return nil, false, store.ErrNotFound
	}
	target, err := e.routes.GetRoute(ctx, cond.DependentAPIID)
	if err != nil {
		return nil, false, fmt.Errorf("dependent route %q: %w", cond.DependentAPIID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tpl := e.matcher.Template(target.Path)
	available := availableValues(rc)

	var missing []string
	for _, name := range tpl.ParamNames() {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		pre, err := e.call(ctx, &CallRequest{
			Method: http.MethodGet,
			Path:   tpl.Prefix(),
			Query:  rc.Query,
			Header: rc.Header,
			Depth:  rc.Depth + 1,
		})
		if err != nil {
			return nil, false, fmt.Errorf("pre-call: %w", err)
		}
		extractParams(pre, missing, available)
	}

	path, unresolved := tpl.Expand(available)
	if len(unresolved) > 0 {
		return nil, false, fmt.Errorf("%w: %s", errUnresolvedParam, strings.Join(unresolved, ", "))
	}

	method := rc.Method
	if method == "" {
		method = http.MethodGet
	}
	resp, err := e.call(ctx, &CallRequest{
		Method: method,
		Path:   path,
		Query:  rc.Query,
		Header: rc.Header,
		Depth:  rc.Depth + 1,
	})
	if err != nil {
		return nil, false, err
	}
	actual, ok := matching.Lookup(resp, cond.DependentAPIPath)
	return actual, ok, nil
}

// call issues req and parses a 2xx JSON response.
func (e *Evaluator) call(ctx context.Context, req *CallRequest) (any, error) {
	resp, err := e.caller.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%s %s returned %d", req.Method, req.Path, resp.StatusCode)
	}
	return parseJSON(resp.Body)
}

func parseJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty response body")
	}
	var v any
	if err := oj.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	return record.Normalize(v), nil
}

// availableValues gathers parameter candidates: path params over body fields
// over query parameters.
func availableValues(rc *RequestContext) map[string]string {
	out := make(map[string]string)
	for k, vs := range rc.Query {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	if body, ok := rc.Body.(map[string]any); ok {
		for k, v := range body {
			if s, ok := scalarString(v); ok {
				out[k] = s
			}
		}
	}
	for k, v := range rc.Params {
		out[k] = v
	}
	return out
}

// extractParams fills names from a pre-call response: the first element
// when it is an array, the object itself otherwise.
func extractParams(resp any, names []string, into map[string]string) {
	if arr, ok := resp.([]any); ok {
		if len(arr) == 0 {
			return
		}
		resp = arr[0]
	}
	obj, ok := resp.(map[string]any)
	if !ok {
		return
	}
	for _, name := range names {
		if s, ok := scalarString(obj[name]); ok {
			into[name] = s
		}
	}
}

func scalarString(v any) (string, bool) {
	switch v.(type) {
	case string, float64, bool:
		return record.Render(v), true
	default:
		return "", false
	}
}

// exprEnvShape fixes the variable types expressions are compiled against.
var exprEnvShape = map[string]any{
	"method":  "",
	"path":    "",
	"headers": map[string]string{},
	"query":   map[string]string{},
	"params":  map[string]string{},
	"body":    any(nil),
}

func (e *Evaluator) evaluateExpression(expression string, rc *RequestContext) bool {
	program, err := e.compile(expression)
	if err != nil {
		e.log.Debug("expression condition does not compile", "expression", expression, "error", err)
		return false
	}
	out, err := expr.Run(program, expressionEnv(rc))
	if err != nil {
		e.log.Debug("expression condition failed", "expression", expression, "error", err)
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.Env(exprEnvShape), expr.AsBool())
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.programs[expression] = program
	e.mu.Unlock()
	return program, nil
}

func expressionEnv(rc *RequestContext) map[string]any {
	headers := make(map[string]string, len(rc.Header))
	for k, vs := range rc.Header {
		if len(vs) > 0 {
			headers[strings.ToLower(k)] = vs[0]
		}
	}
	query := make(map[string]string, len(rc.Query))
	for k, vs := range rc.Query {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}
	params := rc.Params
	if params == nil {
		params = map[string]string{}
	}
	return map[string]any{
		"method":  rc.Method,
		"path":    rc.Path,
		"headers": headers,
		"query":   query,
		"params":  params,
		"body":    rc.Body,
	}
}
