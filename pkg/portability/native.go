package portability

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockapi/pkg/catalog"
)

// ExportNative encodes c in the catalog file format.
func ExportNative(c *catalog.Catalog, asYAML bool) ([]byte, error) {
	if c == nil {
		return nil, &ExportError{Format: FormatNative, Message: "catalog cannot be nil"}
	}
	var (
		data []byte
		err  error
	)
	if asYAML {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return nil, &ExportError{Format: FormatNative, Message: "failed to encode catalog", Cause: err}
	}
	return data, nil
}

// ImportNative decodes a catalog file. YAML is a superset of JSON, so both
// decode through yaml.v3.
func ImportNative(data []byte) (*catalog.Catalog, error) {
	c := &catalog.Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, &ImportError{Format: FormatNative, Message: "failed to parse catalog", Cause: err}
	}
	c.Normalize()
	return c, nil
}
