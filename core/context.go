package core

import (
	"log/slog"
	"maps"
	"time"

	"github.com/hctony/barcode/config"
)

// GenerationContext holds the state for one labelling run.
type GenerationContext struct {
	Batch      *config.BatchConfig
	Stock      *config.StockConfig
	Parameters map[string]string
}

// NewGenerationContext merges batch parameters with params (params win) and
// resolves "$date:" expressions. A "date" parameter always exists.
func NewGenerationContext(batch *config.BatchConfig, stock *config.StockConfig, params map[string]string) *GenerationContext {
	return newGenerationContextAt(batch, stock, params, time.Now())
}

func newGenerationContextAt(batch *config.BatchConfig, stock *config.StockConfig, params map[string]string, now time.Time) *GenerationContext {
	merged := make(map[string]string)
	maps.Copy(merged, batch.Parameters)
	maps.Copy(merged, params)

	if _, ok := merged["date"]; !ok {
		merged["date"] = dynamicDatePrefix + "day:day:0"
	}

	for k, v := range merged {
		val, err := ParseDynamicDate(v, now)
		if err != nil {
			slog.Warn("Ignoring invalid dynamic date parameter", "param", k, "value", v, "error", err)
			continue
		}
		merged[k] = val
	}

	return &GenerationContext{
		Batch:      batch,
		Stock:      stock,
		Parameters: merged,
	}
}
