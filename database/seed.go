package database

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed_products.yaml
var seedProductsYAML []byte

// SeedProduct is one placeholder entry of the embedded seed catalog
type SeedProduct struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Unit     string `yaml:"unit"`
	ImageURL string `yaml:"imageUrl"`
}

type seedFile struct {
	Products []SeedProduct `yaml:"products"`
}

// SeedProducts parses the embedded placeholder catalog
func SeedProducts() ([]SeedProduct, error) {
	return ParseSeedProducts(seedProductsYAML)
}

// ParseSeedProducts parses a YAML seed catalog
func ParseSeedProducts(data []byte) ([]SeedProduct, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed catalog: %w", err)
	}
	for i, p := range f.Products {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("seed product %d is missing id or name", i)
		}
	}
	return f.Products, nil
}
