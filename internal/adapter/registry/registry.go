// Package registry loads the scenario registry from an HCL file:
//
//	scenario "2017" {
//	  label = "2017 (baseline)"
//	  dir   = "2017"
//	}
//
// Scenarios are registered in file order; the first is the default.
package registry

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
)

type file struct {
	Scenarios []scenarioBlock `hcl:"scenario,block"`
}

type scenarioBlock struct {
	ID    string `hcl:"id,label"`
	Label string `hcl:"label,optional"`
	Dir   string `hcl:"dir,optional"`
}

// Load returns the registry in path, or the built-in registry when path is
// empty.
func Load(path string) (*domain.Registry, error) {
	if path == "" {
		return domain.DefaultRegistry(), nil
	}
	return LoadFile(path)
}

// LoadFile reads and parses a registry file.
func LoadFile(path string) (*domain.Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario registry: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes registry source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*domain.Registry, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse scenario registry: %w", diagError(diags))
	}

	var decoded file
	if diags := gohcl.DecodeBody(f.Body, nil, &decoded); diags.HasErrors() {
		return nil, fmt.Errorf("decode scenario registry: %w", diagError(diags))
	}

	scenarios := make([]domain.Scenario, 0, len(decoded.Scenarios))
	for _, b := range decoded.Scenarios {
		scenarios = append(scenarios, domain.Scenario{
			ID:    domain.ScenarioID(b.ID),
			Label: b.Label,
			Dir:   b.Dir,
		})
	}

	reg, err := domain.NewRegistry(scenarios...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return reg, nil
}

// diagError keeps only error-severity diagnostics.
func diagError(diags hcl.Diagnostics) error {
	var errs hcl.Diagnostics
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			errs = append(errs, d)
		}
	}
	return errs
}
