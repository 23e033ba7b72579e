package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoColumns is returned when a stock cannot fit a single cell per row.
var ErrNoColumns = errors.New("cell size plus spacing exceeds printable width")

// ErrCodeOverflow is returned when the last code of a range does not fit in an int64.
var ErrCodeOverflow = errors.New("code range runs past the largest supported code")

// CheckCodeRange rejects ranges whose last code, start+count-1, overflows.
// count must already be at least 1.
func CheckCodeRange(start, count int64) error {
	if start > math.MaxInt64-(count-1) {
		return fmt.Errorf("%w: start %d, count %d", ErrCodeOverflow, start, count)
	}
	return nil
}

// Validator validates the configuration objects.
type Validator struct {
	Provider Provider
}

// NewValidator creates a new Validator.
func NewValidator(provider Provider) *Validator {
	return &Validator{Provider: provider}
}

// ValidateStock validates the StockConfig.
func (v *Validator) ValidateStock(s *StockConfig) error {
	if s.Name == "" {
		return fmt.Errorf("stock name is required")
	}
	switch s.Layout {
	case LayoutSingle, LayoutMirroredPair:
		// OK
	default:
		return fmt.Errorf("stock '%s' has invalid layout '%s'", s.Name, s.Layout)
	}
	switch s.Symbology {
	case SymbologyDataMatrix, SymbologyQRCode:
		// OK
	default:
		return fmt.Errorf("stock '%s' has invalid symbology '%s'", s.Name, s.Symbology)
	}

	if s.PrintableWidthCm <= 0 || s.CellSizeCm <= 0 || s.SpacingCm < 0 {
		return fmt.Errorf("stock '%s' requires positive printable width and cell size and non-negative spacing", s.Name)
	}
	if s.Slots() < 1 {
		return fmt.Errorf("stock '%s': %w (width %.2fcm, cell %.2fcm, spacing %.2fcm)",
			s.Name, ErrNoColumns, s.PrintableWidthCm, s.CellSizeCm, s.SpacingCm)
	}

	if s.ImagePx <= 0 {
		return fmt.Errorf("stock '%s' image size must be positive", s.Name)
	}
	if s.BorderPx < 1 {
		// the outline is drawn one pixel inside the canvas edge
		return fmt.Errorf("stock '%s' border must be at least 1px", s.Name)
	}
	if s.QuietModules < 0 {
		return fmt.Errorf("stock '%s' quiet zone must not be negative", s.Name)
	}
	if s.DPI <= 0 {
		return fmt.Errorf("stock '%s' DPI must be positive", s.Name)
	}
	if s.ColumnWidth <= 0 || s.RowHeight <= 0 {
		return fmt.Errorf("stock '%s' requires positive column width and row height", s.Name)
	}
	return nil
}

// ValidateBatch validates the BatchConfig.
func (v *Validator) ValidateBatch(b *BatchConfig) error {
	if b.Start < 0 {
		return fmt.Errorf("start code must not be negative, got %d", b.Start)
	}
	if b.Count < 1 {
		return fmt.Errorf("code count must be at least 1, got %d", b.Count)
	}
	if err := CheckCodeRange(b.Start, b.Count); err != nil {
		return err
	}
	if b.PerSheet < 1 {
		return fmt.Errorf("codes per sheet must be at least 1, got %d", b.PerSheet)
	}
	if b.Output == "" {
		return fmt.Errorf("output workbook path is required")
	}
	if b.ImageDir == "" {
		return fmt.Errorf("image directory is required")
	}
	if b.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", b.Workers)
	}
	if b.Stock == "" {
		return fmt.Errorf("stock name is required")
	}
	if v.Provider != nil {
		if _, err := v.Provider.GetStockConfig(b.Stock); err != nil {
			return fmt.Errorf("batch references unknown stock '%s'", b.Stock)
		}
	}
	return nil
}
