package sites

import (
	_ "embed"
	"fmt"
	"strings"

	"booru/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed sites.yaml
var defaultTable []byte

// Registry maps canonical domains and their aliases to site configs. It is read-only after New.
type Registry struct {
	order   []string
	configs map[string]domain.SiteConfig
	lookup  map[string]string
}

func New(configs []domain.SiteConfig) (*Registry, error) {
	r := &Registry{
		configs: make(map[string]domain.SiteConfig, len(configs)),
		lookup:  make(map[string]string),
	}

	for _, c := range configs {
		if err := r.add(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Default loads the embedded site table.
func Default() (*Registry, error) {
	configs, err := Parse(defaultTable)
	if err != nil {
		return nil, fmt.Errorf("failed to load default site table: %w", err)
	}

	return New(configs)
}

// Parse reads a yaml site table with a top level "sites" list.
func Parse(data []byte) ([]domain.SiteConfig, error) {
	var table struct {
		Sites []domain.SiteConfig `yaml:"sites"`
	}

	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, err
	}

	return table.Sites, nil
}

func (r *Registry) add(c domain.SiteConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}

	key := strings.ToLower(c.Domain)
	if _, ok := r.configs[key]; ok {
		return fmt.Errorf("duplicate site: %s", c.Domain)
	}

	names := append([]string{key}, c.Aliases...)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if owner, ok := r.lookup[name]; ok && owner != key {
			return fmt.Errorf("alias %q of %s is already used by %s", name, c.Domain, owner)
		}
	}

	for _, name := range names {
		r.lookup[strings.ToLower(strings.TrimSpace(name))] = key
	}

	c.Domain = key
	c.Aliases = append([]string(nil), c.Aliases...)
	r.configs[key] = c
	r.order = append(r.order, key)

	return nil
}

// Merge returns a new registry with extra added. An extra site replaces a table site with the same domain.
func (r *Registry) Merge(extra []domain.SiteConfig) (*Registry, error) {
	replaced := make(map[string]bool, len(extra))
	for _, c := range extra {
		replaced[strings.ToLower(c.Domain)] = true
	}

	configs := make([]domain.SiteConfig, 0, len(r.order)+len(extra))
	for _, key := range r.order {
		if !replaced[key] {
			configs = append(configs, r.configs[key])
		}
	}

	return New(append(configs, extra...))
}

// Resolve matches input case-insensitively against every domain and alias.
func (r *Registry) Resolve(input string) (string, bool) {
	key, ok := r.lookup[strings.ToLower(strings.TrimSpace(input))]
	return key, ok
}

func (r *Registry) Get(key string) (domain.SiteConfig, bool) {
	c, ok := r.configs[key]
	return c, ok
}

// Keys returns the canonical keys in table order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}
