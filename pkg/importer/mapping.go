package importer

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed mapping/tools.yaml
var defaultMapping []byte

// Columns are the tool_rack_layout columns a sheet may populate.
var Columns = []string{
	"tool_no", "wo_no", "rack_no", "location", "name",
	"description", "category", "status", "last_maintained", "image_url",
}

// MappingConfig maps spreadsheet headers to tool columns.
type MappingConfig struct {
	Version  int                 `yaml:"version"`
	Sheet    string              `yaml:"sheet"`
	Required []string            `yaml:"required"`
	Aliases  map[string][]string `yaml:"aliases"`
}

// LoadMapping reads a mapping file, or the embedded default when path is "".
func LoadMapping(path string) (*MappingConfig, error) {
	if path == "" {
		return ParseMapping(defaultMapping)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	return ParseMapping(data)
}

func ParseMapping(data []byte) (*MappingConfig, error) {
	var m MappingConfig
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if m.Version != 1 {
		return nil, fmt.Errorf("unsupported mapping version %d", m.Version)
	}

	known := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		known[c] = true
	}
	for col := range m.Aliases {
		if !known[col] {
			return nil, fmt.Errorf("mapping names unknown column %q", col)
		}
	}
	for _, col := range m.Required {
		if !known[col] {
			return nil, fmt.Errorf("mapping requires unknown column %q", col)
		}
	}
	if !contains(m.Required, "tool_no") {
		m.Required = append(m.Required, "tool_no")
	}
	return &m, nil
}

// ResolveHeaders maps header cell positions to columns. A column name itself
// always matches, in addition to its aliases. The first matching header wins.
func (m *MappingConfig) ResolveHeaders(headers []string) (map[int]string, error) {
	lookup := make(map[string]string)
	for _, col := range Columns {
		lookup[normalizeHeader(col)] = col
	}
	for col, aliases := range m.Aliases {
		for _, a := range aliases {
			lookup[normalizeHeader(a)] = col
		}
	}

	resolved := make(map[int]string)
	seen := make(map[string]bool)
	for i, h := range headers {
		col, ok := lookup[normalizeHeader(h)]
		if !ok || seen[col] {
			continue
		}
		resolved[i] = col
		seen[col] = true
	}

	var missing []string
	for _, col := range m.Required {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return resolved, nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
