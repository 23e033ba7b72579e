package config

import "fmt"

// Provider defines the interface for retrieving label stocks.
type Provider interface {
	GetStockConfig(name string) (*StockConfig, error)
}

// MemoryConfigRegistry implements Provider using an in-memory map.
type MemoryConfigRegistry struct {
	stocks map[string]*StockConfig
}

// NewMemoryConfigRegistry creates a new registry with the given stocks.
func NewMemoryConfigRegistry(s map[string]*StockConfig) *MemoryConfigRegistry {
	return &MemoryConfigRegistry{
		stocks: s,
	}
}

// GetStockConfig retrieves a StockConfig by name.
func (r *MemoryConfigRegistry) GetStockConfig(name string) (*StockConfig, error) {
	if conf, ok := r.stocks[name]; ok {
		return conf, nil
	}
	return nil, fmt.Errorf("label stock not found: %s", name)
}
