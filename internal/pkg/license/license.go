package license

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultName = "All rights reserved"

var builtin = []string{
	DefaultName,
	"Public domain",
	"CC0-1.0",
	"CC-BY-4.0",
	"CC-BY-SA-4.0",
	"CC-BY-ND-4.0",
	"CC-BY-NC-4.0",
	"CC-BY-NC-SA-4.0",
	"CC-BY-NC-ND-4.0",
}

// Registry is the allow-list of license names a version may carry.
// It is read-only once built.
type Registry struct {
	names    map[string]string
	fallback string
}

func NewRegistry(fallback string, names ...string) *Registry {
	if len(names) == 0 {
		names = builtin
	}
	r := &Registry{names: make(map[string]string, len(names)+1)}
	for _, n := range names {
		r.add(n)
	}
	if fallback == "" {
		fallback = DefaultName
	}
	r.add(fallback)
	r.fallback = fallback
	return r
}

// Load reads the allow-list from a YAML file shaped like config/licenses.yaml.
// A missing path yields the built-in list.
func Load(path, fallback string) (*Registry, error) {
	if path == "" {
		return NewRegistry(fallback), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file struct {
		Default  string   `yaml:"DEFAULT"`
		Licenses []string `yaml:"LICENSES"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(file.Licenses) == 0 {
		return nil, fmt.Errorf("%s declares no licenses", path)
	}

	if fallback == "" {
		fallback = file.Default
	}
	return NewRegistry(fallback, file.Licenses...), nil
}

func (r *Registry) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	r.names[normalize(name)] = name
}

// Canonical returns the registered spelling of name, matching
// case-insensitively.
func (r *Registry) Canonical(name string) (string, bool) {
	canonical, ok := r.names[normalize(name)]
	return canonical, ok
}

// Default is the license auto-resolved for pictures submitted without one.
func (r *Registry) Default() string {
	return r.fallback
}

// Names lists the registered spellings in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
