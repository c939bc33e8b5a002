// Package catalog loads the expense types an employee may pick.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExpenseType is one entry of the catalogue.
type ExpenseType struct {
	Name        string `yaml:"name"`
	Code        string `yaml:"code"`
	Description string `yaml:"description,omitempty"`
	// DefaultPCT overrides the form's default percentage for this type.
	DefaultPCT int64 `yaml:"default_pct,omitempty"`
}

// Config represents the catalogue file.
type Config struct {
	ExpenseTypes []ExpenseType `yaml:"expense_types"`
}

// DefaultTypes is used when no catalogue file exists.
var DefaultTypes = []ExpenseType{
	{Name: "Transports", Code: "transports"},
	{Name: "Restaurants et bars", Code: "restaurants"},
	{Name: "Hôtel et logement", Code: "hotel"},
	{Name: "Services en ligne", Code: "online"},
	{Name: "IT et électronique", Code: "it"},
	{Name: "Equipement et matériel", Code: "equipment"},
	{Name: "Fournitures de bureau", Code: "office"},
}

// Catalog maps expense type names to their entries.
type Catalog struct {
	types  []ExpenseType
	byName map[string]ExpenseType
}

// New builds a catalogue from the given types. Names are matched case-insensitively.
func New(types []ExpenseType) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]ExpenseType, len(types))}
	for _, t := range types {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, errors.New("expense type with empty name")
		}
		key := strings.ToLower(name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate expense type %q", name)
		}
		t.Name = name
		c.byName[key] = t
		c.types = append(c.types, t)
	}
	return c, nil
}

// Default returns the built-in catalogue.
func Default() *Catalog {
	c, _ := New(DefaultTypes)
	return c
}

// Load reads a catalogue from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(config.ExpenseTypes) == 0 {
		return nil, fmt.Errorf("catalog %s defines no expense types", path)
	}

	return New(config.ExpenseTypes)
}

// LoadOrDefault reads the catalogue at path, falling back to the built-in
// one when path is empty or the file does not exist.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	c, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

// Lookup returns the expense type with the given name.
func (c *Catalog) Lookup(name string) (ExpenseType, bool) {
	t, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Types returns the expense types in file order.
func (c *Catalog) Types() []ExpenseType {
	out := make([]ExpenseType, len(c.types))
	copy(out, c.types)
	return out
}

// Names returns the expense type names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.types))
	for _, t := range c.types {
		names = append(names, t.Name)
	}
	return names
}
