package matching

import (
	"strconv"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"
)

var (
	jpMu    sync.RWMutex
	jpCache = make(map[string]jp.Expr)
)

// Lookup resolves path inside a parsed JSON document.
//
// An empty path yields doc itself. Paths starting with '$' are JSONPath
// expressions and yield their first result. Anything else is a dot path;
// numeric segments index into arrays. The boolean is false when any segment
// is missing.
func Lookup(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}
	if strings.HasPrefix(path, "$") {
		return lookupJSONPath(doc, path)
	}

	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func lookupJSONPath(doc any, path string) (any, bool) {
	expr, err := compileJSONPath(path)
	if err != nil {
		return nil, false
	}
	results := expr.Get(doc)
	if len(results) == 0 {
		return nil, false
	}
	return results[0], true
}

func compileJSONPath(path string) (jp.Expr, error) {
	jpMu.RLock()
	expr, ok := jpCache[path]
	jpMu.RUnlock()
	if ok {
		return expr, nil
	}

	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, err
	}
	jpMu.Lock()
	jpCache[path] = expr
	jpMu.Unlock()
	return expr, nil
}
