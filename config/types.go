package config

import "math"

type Layout string

const (
	LayoutSingle       Layout = "single"        // one image per code
	LayoutMirroredPair Layout = "mirrored-pair" // plain copy left, tagged copy mirrored right
)

type Symbology string

const (
	SymbologyDataMatrix Symbology = "datamatrix"
	SymbologyQRCode     Symbology = "qrcode"
)

// StockConfig: physical label stock and rendering constants
type StockConfig struct {
	Name   string `json:"name"   yaml:"name"`
	Layout Layout `json:"layout" yaml:"layout"`

	// Physical sizes in centimeters
	PrintableWidthCm float64 `json:"printableWidthCm" yaml:"printableWidthCm"`
	CellSizeCm       float64 `json:"cellSizeCm"       yaml:"cellSizeCm"`
	SpacingCm        float64 `json:"spacingCm"        yaml:"spacingCm"`

	// Raster sizes in pixels
	ImagePx      int `json:"imagePx"      yaml:"imagePx"`
	BorderPx     int `json:"borderPx"     yaml:"borderPx"`
	QuietModules int `json:"quietModules" yaml:"quietModules"`
	DPI          int `json:"dpi"          yaml:"dpi"`

	// Sheet sizing, in excel column-width units and points
	ColumnWidth float64 `json:"columnWidth" yaml:"columnWidth"`
	RowHeight   float64 `json:"rowHeight"   yaml:"rowHeight"`

	Symbology Symbology `json:"symbology,omitempty" yaml:"symbology,omitempty"`
	Font      string    `json:"font,omitempty"      yaml:"font,omitempty"`
	FontSize  float64   `json:"fontSize,omitempty"  yaml:"fontSize,omitempty"`
}

// Slots returns how many codes fit into one row.
func (s *StockConfig) Slots() int {
	unit := s.CellSizeCm + s.SpacingCm
	if s.Layout == LayoutMirroredPair {
		unit = s.CellSizeCm*2 + s.SpacingCm*2
	}
	if unit <= 0 {
		return 0
	}
	// epsilon keeps exact fits such as 10.8/1.8 from rounding down
	return int(math.Floor(s.PrintableWidthCm/unit + 1e-9))
}

// Columns returns the number of sheet columns used per row.
func (s *StockConfig) Columns() int {
	if s.Layout == LayoutMirroredPair {
		return s.Slots() * 2
	}
	return s.Slots()
}

// CanvasPx is the side of the bordered image written to disk.
func (s *StockConfig) CanvasPx() int {
	return s.ImagePx + 2*s.BorderPx
}

// BatchConfig: one generation run
type BatchConfig struct {
	Start    int64  `json:"start"    yaml:"start"`
	Count    int64  `json:"count"    yaml:"count"`
	PerSheet int64  `json:"perSheet" yaml:"perSheet"`
	Output   string `json:"output"   yaml:"output"` // may contain ${start} ${end} ${count} ${date}
	ImageDir string `json:"imageDir" yaml:"imageDir"`
	Stock    string `json:"stock"    yaml:"stock"`
	Workers  int    `json:"workers,omitempty" yaml:"workers,omitempty"`

	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Bundle is the on-disk YAML layout.
type Bundle struct {
	Stocks []StockConfig `json:"stocks" yaml:"stocks"`
	Batch  BatchConfig   `json:"batch"  yaml:"batch"`
}

const (
	StockPair   = "pair"
	StockSingle = "single"
)

// DefaultStocks returns the two label stocks the tool ships with.
func DefaultStocks() map[string]*StockConfig {
	return map[string]*StockConfig{
		StockPair: {
			Name:             StockPair,
			Layout:           LayoutMirroredPair,
			PrintableWidthCm: 20.0, // A4 width with slack
			CellSizeCm:       1.2,
			SpacingCm:        0.5,
			ImagePx:          45, // 1.2cm @ 96 DPI
			BorderPx:         2,
			QuietModules:     2,
			DPI:              96,
			ColumnWidth:      6.5,
			RowHeight:        48,
			Symbology:        SymbologyDataMatrix,
			Font:             "arial.ttf",
			FontSize:         12,
		},
		StockSingle: {
			Name:             StockSingle,
			Layout:           LayoutSingle,
			PrintableWidthCm: 10.40, // right 1cm is not printable
			CellSizeCm:       1.00,
			SpacingCm:        0.8,
			ImagePx:          38, // 1cm @ 96 DPI
			BorderPx:         2,
			QuietModules:     2,
			DPI:              96,
			ColumnWidth:      5,
			RowHeight:        38,
			Symbology:        SymbologyDataMatrix,
		},
	}
}

// DefaultBatch mirrors the historical fixed invocation: codes 0..999 on one sheet.
func DefaultBatch() BatchConfig {
	return BatchConfig{
		Start:    0,
		Count:    1000,
		PerSheet: 1000,
		Output:   "barcodes.xlsx",
		ImageDir: "barcodes",
		Stock:    StockPair,
		Workers:  1,
	}
}
