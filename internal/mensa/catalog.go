// Package mensa fetches and formats ETH and UZH cafeteria menus.
package mensa

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// KindETH uses the ETH gastro web service; KindUZH scrapes the UZH
// menu pages.
const (
	KindETH = "eth"
	KindUZH = "uzh"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Cafeteria describes one location in the catalog.
type Cafeteria struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	// API is the identifier used by the upstream service: the mensa
	// name in the ETH gastro API, or the page slug on the UZH site.
	API string `yaml:"api"`
	// EveningAPI, when set, replaces API after the afternoon switch.
	EveningAPI string   `yaml:"eveningApi"`
	Aliases    []string `yaml:"aliases"`
}

// CommandName is the canonical alias, used as the bare bot command.
func (c Cafeteria) CommandName() string { return c.Aliases[0] }

// Catalog is the set of known cafeterias with alias lookup.
type Catalog struct {
	cafeterias []Cafeteria
	byAlias    map[string]int
}

// DefaultCatalog parses the embedded catalog. The embedded file is
// validated by tests, so a parse failure is a programming error.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var doc struct {
		Cafeterias []Cafeteria `yaml:"cafeterias"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("mensa: parse catalog: %w", err)
	}
	c := &Catalog{
		cafeterias: doc.Cafeterias,
		byAlias:    make(map[string]int),
	}
	for i, caf := range doc.Cafeterias {
		if caf.Kind != KindETH && caf.Kind != KindUZH {
			return nil, fmt.Errorf("mensa: cafeteria %q has unknown kind %q", caf.Name, caf.Kind)
		}
		if len(caf.Aliases) == 0 {
			return nil, fmt.Errorf("mensa: cafeteria %q has no aliases", caf.Name)
		}
		for _, alias := range caf.Aliases {
			key := strings.ToLower(alias)
			if _, taken := c.byAlias[key]; !taken {
				c.byAlias[key] = i
			}
		}
		key := strings.ToLower(caf.Name)
		if _, taken := c.byAlias[key]; !taken {
			c.byAlias[key] = i
		}
	}
	return c, nil
}

// Lookup resolves an alias or full name, case-insensitively.
func (c *Catalog) Lookup(name string) (Cafeteria, bool) {
	i, ok := c.byAlias[strings.ToLower(name)]
	if !ok {
		return Cafeteria{}, false
	}
	return c.cafeterias[i], true
}

// CommandNames lists the canonical alias of every cafeteria, in
// catalog order.
func (c *Catalog) CommandNames() []string {
	names := make([]string, len(c.cafeterias))
	for i, caf := range c.cafeterias {
		names[i] = caf.CommandName()
	}
	return names
}
