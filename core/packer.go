package core

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hctony/barcode/config"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// SheetPacker places one label per code onto a worksheet grid.
type SheetPacker struct {
	File     ExcelFile
	Renderer LabelRenderer
	Stock    *config.StockConfig
	// Workers > 1 renders a row's images concurrently; placement stays in slot order.
	Workers int
}

// NewSheetPacker creates a packer writing into f.
func NewSheetPacker(f ExcelFile, renderer LabelRenderer, stock *config.StockConfig, workers int) *SheetPacker {
	return &SheetPacker{
		File:     f,
		Renderer: renderer,
		Stock:    stock,
		Workers:  workers,
	}
}

type slotImages struct {
	code   int64
	plain  string
	tagged string
}

// Pack fills sheet with codes startCode..endCode inclusive and returns the
// number of rows used.
func (p *SheetPacker) Pack(sheet string, startCode, endCode int64) (int, error) {
	if endCode < startCode {
		return 0, fmt.Errorf("empty code range %d-%d", startCode, endCode)
	}
	slots := p.Stock.Slots()
	if slots < 1 {
		return 0, config.ErrNoColumns
	}

	firstCol, err := excelize.ColumnNumberToName(1)
	if err != nil {
		return 0, err
	}
	lastCol, err := excelize.ColumnNumberToName(p.Stock.Columns())
	if err != nil {
		return 0, err
	}
	if err := p.File.SetColWidth(sheet, firstCol, lastCol, p.Stock.ColumnWidth); err != nil {
		return 0, fmt.Errorf("failed to set column width: %w", err)
	}

	rows := LayoutRows(startCode, endCode, slots)
	for _, row := range rows {
		images, err := p.renderRow(row)
		if err != nil {
			return 0, err
		}
		for slot, img := range images {
			plainCol, taggedCol := SlotColumns(p.Stock, slot)
			if err := p.place(sheet, plainCol, row.Index, img.plain, img.code, false); err != nil {
				return 0, err
			}
			if taggedCol >= 0 {
				if err := p.place(sheet, taggedCol, row.Index, img.tagged, img.code, true); err != nil {
					return 0, err
				}
			}
		}
		if err := p.File.SetRowHeight(sheet, row.Index, p.Stock.RowHeight); err != nil {
			return 0, fmt.Errorf("failed to set height of row %d: %w", row.Index, err)
		}
	}

	slog.Debug("Sheet packed", "sheet", sheet, "rows", len(rows), "perRow", slots)
	return len(rows), nil
}

func (p *SheetPacker) renderRow(row Row) ([]slotImages, error) {
	withTag := p.Stock.Layout == config.LayoutMirroredPair
	images := make([]slotImages, row.Len())

	render := func(slot int) error {
		code := row.First + int64(slot)
		plain, err := p.Renderer.Generate(code, false)
		if err != nil {
			return err
		}
		img := slotImages{code: code, plain: plain}
		if withTag {
			if img.tagged, err = p.Renderer.Generate(code, true); err != nil {
				return err
			}
		}
		images[slot] = img
		return nil
	}

	if p.Workers <= 1 {
		for slot := range images {
			if err := render(slot); err != nil {
				return nil, err
			}
		}
		return images, nil
	}

	var g errgroup.Group
	g.SetLimit(p.Workers)
	for slot := range images {
		slot := slot // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		g.Go(func() error { return render(slot) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func (p *SheetPacker) place(sheet string, col, row int, path string, code int64, tagged bool) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}

	// displayed at the un-bordered symbol size
	scale := float64(p.Stock.ImagePx) / float64(p.Stock.CanvasPx())
	alt := strconv.FormatInt(code, 10)
	if tagged {
		alt += " T"
	}
	opts := &excelize.GraphicOptions{
		AltText:         alt,
		ScaleX:          scale,
		ScaleY:          scale,
		LockAspectRatio: true,
		Positioning:     "oneCell",
	}
	if err := p.File.AddPicture(sheet, cell, path, opts); err != nil {
		return fmt.Errorf("failed to add picture for code %d at %s: %w", code, cell, err)
	}
	return nil
}
