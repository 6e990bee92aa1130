// Package templates lists and reads the optimization template catalog:
// YAML files under <dir>/insights and <dir>/optimizations.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Categories recognized in the catalog directory.
const (
	CategoryInsights      = "insights"
	CategoryOptimizations = "optimizations"
)

// Info describes one catalog entry.
type Info struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// Catalog reads templates from a directory tree.
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog rooted at dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// List returns templates in the given category ("insights",
// "optimizations", or "all"/"" for both). A missing catalog directory
// yields an empty list, not an error.
func (c *Catalog) List(category string) []Info {
	var infos []Info
	for _, cat := range []string{CategoryInsights, CategoryOptimizations} {
		if category != "" && category != "all" && category != cat {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(c.dir, cat))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
				continue
			}
			infos = append(infos, Info{
				Name:        strings.TrimSuffix(name, ".yaml"),
				Category:    cat,
				Path:        filepath.Join("templates", cat, name),
				Description: c.description(filepath.Join(c.dir, cat, name)),
			})
		}
	}
	return infos
}

// Get returns the raw content of a named template, searching both
// categories. Returns os.ErrNotExist-wrapped error when absent.
func (c *Catalog) Get(name string) (string, error) {
	for _, cat := range []string{CategoryInsights, CategoryOptimizations} {
		path := filepath.Join(c.dir, cat, name+".yaml")
		content, err := os.ReadFile(path)
		if err == nil {
			return string(content), nil
		}
	}
	return "", fmt.Errorf("template not found: %s", name)
}

// description pulls the top-level description field from a template, if
// the file parses as YAML.
func (c *Catalog) description(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var head struct {
		Description string `yaml:"description"`
	}
	if err := yaml.Unmarshal(content, &head); err != nil {
		return ""
	}
	return head.Description
}
