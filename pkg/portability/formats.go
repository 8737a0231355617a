package portability

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format represents a supported import/export format.
type Format string

// Supported formats.
const (
	FormatUnknown Format = ""
	FormatNative  Format = "native"  // catalog files
	FormatOpenAPI Format = "openapi" // OpenAPI 3.x
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native", "mockapi", "catalog":
		return FormatNative
	case "openapi", "oas", "oas3":
		return FormatOpenAPI
	default:
		return FormatUnknown
	}
}

// DetectFormat guesses the format of data. An "openapi" top-level key means
// OpenAPI; "routes", "resources", "records" or "generate" mean native.
func DetectFormat(data []byte, filename string) Format {
	var probe map[string]any
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	var err error
	if trimmed[0] == '{' && !isYAMLFile(filename) {
		err = json.Unmarshal(trimmed, &probe)
	} else {
		err = yaml.Unmarshal(trimmed, &probe)
	}
	if err != nil {
		return FormatUnknown
	}
	if _, ok := probe["openapi"]; ok {
		return FormatOpenAPI
	}
	for _, key := range []string{"routes", "resources", "records", "generate"} {
		if _, ok := probe[key]; ok {
			return FormatNative
		}
	}
	return FormatUnknown
}

func isYAMLFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// toOpenAPIPath converts :param segments to {param}.
func toOpenAPIPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			parts[i] = "{" + part[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}

// fromOpenAPIPath converts {param} segments to :param.
func fromOpenAPIPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			parts[i] = ":" + part[1:len(part)-1]
		}
	}
	return strings.Join(parts, "/")
}
