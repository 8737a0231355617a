package config

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/mockapi/pkg/catalog"
)

// LoadCatalogFile reads one catalog file.
func LoadCatalogFile(path string) (*catalog.Catalog, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	c := &catalog.Catalog{}
	if err := decode(path, data, c); err != nil {
		return nil, err
	}
	c.Normalize()
	return c, nil
}

// LoadCatalogFiles merges every file matched by patterns, in pattern order
// and then lexical path order. Relative patterns resolve against baseDir.
// A pattern without glob metacharacters must name an existing file.
func LoadCatalogFiles(patterns []string, baseDir string) (*catalog.Catalog, error) {
	merged := &catalog.Catalog{}
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		resolved := ResolvePath(baseDir, pattern)
		matches, err := expandGlob(resolved)
		if err != nil {
			return nil, fmt.Errorf("expanding glob pattern %q: %w", pattern, err)
		}

		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			c, err := LoadCatalogFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", path, err)
			}
			merged.Merge(c)
		}
	}
	return merged, nil
}

// ResolvePath joins a relative path onto baseDir.
func ResolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// expandGlob returns sorted matches. A literal path is returned as is so that
// a missing file surfaces as ErrFileNotFound.
func expandGlob(pattern string) ([]string, error) {
	if !hasMeta(pattern) {
		return []string{pattern}, nil
	}
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	return matches, nil
}

func hasMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
