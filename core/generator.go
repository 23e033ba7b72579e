package core

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hctony/barcode/config"
)

// SheetError wraps a failure while populating one worksheet.
type SheetError struct {
	Sheet string
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("processing sheet %s: %v", e.Sheet, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// BuildReport summarises a workbook build.
type BuildReport struct {
	Output    string
	Sheets    []string
	FirstCode int64
	LastCode  int64
	Rows      int
	// Locked is set when the workbook was built but could not be saved
	// because the destination is open elsewhere.
	Locked bool
}

// WorkbookBuilder creates one worksheet per chunk of codes and saves the workbook.
type WorkbookBuilder struct {
	Context  *GenerationContext
	Renderer LabelRenderer

	// NewFile opens the workbook each Build writes into.
	NewFile func() ExcelFile
}

func NewWorkbookBuilder(ctx *GenerationContext, renderer LabelRenderer) *WorkbookBuilder {
	return &WorkbookBuilder{
		Context:  ctx,
		Renderer: renderer,
		NewFile:  NewExcelFile,
	}
}

func replacePlaceholders(input string, params map[string]string) string {
	output := input
	for k, v := range params {
		output = strings.ReplaceAll(output, "${"+k+"}", v)
	}
	return output
}

// OutputPath expands ${start}, ${end}, ${count} and context parameters in pattern.
func (b *WorkbookBuilder) OutputPath(pattern string, startCode, totalCount int64) string {
	params := maps.Clone(b.Context.Parameters)
	if params == nil {
		params = make(map[string]string)
	}
	params["start"] = strconv.FormatInt(startCode, 10)
	params["end"] = strconv.FormatInt(startCode+totalCount-1, 10)
	params["count"] = strconv.FormatInt(totalCount, 10)
	return replacePlaceholders(pattern, params)
}

// Build packs codes [startCode, startCode+totalCount) into sheets of perSheet
// codes and saves the workbook to outputFile.
//
// A destination locked by another process is not an error: the report comes
// back with Locked set and the workbook unsaved.
func (b *WorkbookBuilder) Build(ctx context.Context, startCode, totalCount, perSheet int64, outputFile string) (report *BuildReport, err error) {
	if startCode < 0 {
		return nil, fmt.Errorf("start code must not be negative, got %d", startCode)
	}
	if totalCount < 1 {
		return nil, fmt.Errorf("code count must be at least 1, got %d", totalCount)
	}
	if perSheet < 1 {
		return nil, fmt.Errorf("codes per sheet must be at least 1, got %d", perSheet)
	}
	if err := config.CheckCodeRange(startCode, totalCount); err != nil {
		return nil, err
	}

	outputPath := b.OutputPath(outputFile, startCode, totalCount)
	chunks := PartitionRange(startCode, totalCount, perSheet)

	f := b.NewFile()
	defer func(f ExcelFile) {
		if closeErr := f.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("failed to close workbook: %w", closeErr)
			} else {
				err = fmt.Errorf("%w; (cleanup error: %v)", err, closeErr)
			}
		}
	}(f)

	defaultSheets := f.GetSheetList()

	packer := NewSheetPacker(f, b.Renderer, b.Context.Stock, b.Context.Batch.Workers)
	report = &BuildReport{
		Output:    outputPath,
		FirstCode: startCode,
		LastCode:  startCode + totalCount - 1,
	}

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := chunk.Name()
		if _, err := f.NewSheet(name); err != nil {
			return nil, &SheetError{Sheet: name, Err: fmt.Errorf("failed to create sheet: %w", err)}
		}
		rows, err := packer.Pack(name, chunk.Start, chunk.End)
		if err != nil {
			return nil, &SheetError{Sheet: name, Err: err}
		}
		report.Sheets = append(report.Sheets, name)
		report.Rows += rows
		slog.Info("Sheet populated", "sheet", name, "codes", chunk.End-chunk.Start+1, "rows", rows)
	}

	// The library's default sheet is dropped once real sheets exist
	for _, name := range defaultSheets {
		if slices.Contains(report.Sheets, name) {
			continue
		}
		if err := f.DeleteSheet(name); err != nil {
			return nil, fmt.Errorf("failed to remove default sheet %s: %w", name, err)
		}
	}

	// UX: open on A1 of the first sheet
	for _, sheet := range f.GetSheetList() {
		_ = f.SetSelection(sheet, "A1")
	}
	f.SetActiveSheet(0)

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		if IsOutputLocked(err, outputPath) {
			slog.Warn("Workbook not saved, destination is locked", "output", outputPath, "error", err)
			report.Locked = true
			return report, nil
		}
		return nil, fmt.Errorf("failed to save output: %w", err)
	}
	return report, nil
}
