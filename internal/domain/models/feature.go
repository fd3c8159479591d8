package models

import (
	"sort"
	"strings"
)

// Feature is one entry of the backend feature catalog. Parameters map a
// parameter name to its default value.
type Feature struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters"`
}

// FeatureCatalog is the body of the backend's GET /features.
type FeatureCatalog struct {
	Features []Feature `json:"features"`
}

// Find looks a feature up by name, ignoring surrounding whitespace.
func (c FeatureCatalog) Find(name string) (Feature, bool) {
	name = strings.TrimSpace(name)
	for _, f := range c.Features {
		if strings.TrimSpace(f.Name) == name {
			return f, true
		}
	}
	return Feature{}, false
}

// DefaultParams returns a fresh parameter map filled with defaults.
func (f Feature) DefaultParams() map[string]string {
	out := make(map[string]string, len(f.Parameters))
	for k, v := range f.Parameters {
		out[k] = v
	}
	return out
}

// ParamNames returns the parameter names in stable order.
func (f Feature) ParamNames() []string {
	out := make([]string, 0, len(f.Parameters))
	for k := range f.Parameters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
