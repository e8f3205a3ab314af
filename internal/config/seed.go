package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/efreitasn/toymarket/internal/domain"
)

// seedFile is the layout of SEED_FILE:
//
//	companies:
//	  - name: Acme
//	    price: 1200
//	    total_stocks: 10000
type seedFile struct {
	Companies []domain.CompanySeed `yaml:"companies"`
}

// LoadSeed reads the companies to list at startup. An empty path yields no
// companies.
func LoadSeed(path string) ([]domain.CompanySeed, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed YAML.
func ParseSeed(data []byte) ([]domain.CompanySeed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	seen := make(map[string]bool, len(f.Companies))
	for i, c := range f.Companies {
		switch {
		case c.Name == "":
			return nil, fmt.Errorf("seed company %d: name is required", i)
		case c.Price < 1:
			return nil, fmt.Errorf("seed company %q: price must be at least 1", c.Name)
		case c.TotalStocks <= 0:
			return nil, fmt.Errorf("seed company %q: total_stocks must be positive", c.Name)
		case seen[c.Name]:
			return nil, fmt.Errorf("seed company %q: duplicate name", c.Name)
		}
		seen[c.Name] = true
	}
	return f.Companies, nil
}
