package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadBundle reads a YAML bundle without applying defaults or validation.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config bundle: %w", err)
	}

	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse config bundle: %w", err)
	}
	return &b, nil
}

// rawBundle keeps each section as a node so it can be decoded over its base;
// keys absent from the file leave the base value untouched.
type rawBundle struct {
	Stocks []yaml.Node `yaml:"stocks"`
	Batch  yaml.Node   `yaml:"batch"`
}

// LoadConfigBundle loads a bundle, merges it over the built-in stocks and
// batch defaults, and validates the result.
// An empty path yields the built-in configuration.
func LoadConfigBundle(path string) (*BatchConfig, map[string]*StockConfig, error) {
	stocks := DefaultStocks()
	batch := DefaultBatch()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read config bundle: %w", err)
		}
		var raw rawBundle
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, nil, fmt.Errorf("failed to parse config bundle: %w", err)
		}

		for i := range raw.Stocks {
			s, err := decodeStock(&raw.Stocks[i], stocks)
			if err != nil {
				return nil, nil, fmt.Errorf("stock %d: %w", i, err)
			}
			stocks[s.Name] = s
		}
		if !raw.Batch.IsZero() {
			if err := raw.Batch.Decode(&batch); err != nil {
				return nil, nil, fmt.Errorf("failed to parse batch: %w", err)
			}
		}
	}

	v := NewValidator(NewMemoryConfigRegistry(stocks))
	for name, s := range stocks {
		if err := v.ValidateStock(s); err != nil {
			return nil, nil, fmt.Errorf("stock '%s': %w", name, err)
		}
	}
	if err := v.ValidateBatch(&batch); err != nil {
		return nil, nil, err
	}
	return &batch, stocks, nil
}

// decodeStock decodes node over the stock of the same name, or over an empty
// stock with defaults applied when the name is new.
func decodeStock(node *yaml.Node, known map[string]*StockConfig) (*StockConfig, error) {
	var id struct {
		Name string `yaml:"name"`
	}
	if err := node.Decode(&id); err != nil {
		return nil, err
	}
	if id.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	var s StockConfig
	base, ok := known[id.Name]
	if ok {
		s = *base
	}
	if err := node.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse stock '%s': %w", id.Name, err)
	}
	if !ok {
		applyStockDefaults(&s)
	}
	return &s, nil
}

func applyStockDefaults(s *StockConfig) {
	if s.Layout == "" {
		s.Layout = LayoutSingle
	}
	if s.Symbology == "" {
		s.Symbology = SymbologyDataMatrix
	}
	if s.DPI == 0 {
		s.DPI = 96
	}
	if s.FontSize == 0 {
		s.FontSize = 12
	}
}
