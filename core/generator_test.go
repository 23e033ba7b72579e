package core

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hctony/barcode/config"

	"github.com/xuri/excelize/v2"
)

func newTestBuilder(stock *config.StockConfig, renderer LabelRenderer, f ExcelFile) *WorkbookBuilder {
	batch := config.DefaultBatch()
	ctx := newGenerationContextAt(&batch, stock, map[string]string{"site": "north"},
		time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	b := NewWorkbookBuilder(ctx, renderer)
	if f != nil {
		b.NewFile = func() ExcelFile { return f }
	}
	return b
}

func TestReplacePlaceholders(t *testing.T) {
	params := map[string]string{
		"month": "jan",
		"day":   "01",
	}

	got := replacePlaceholders("reports/${month}/report-${day}", params)
	if got != "reports/jan/report-01" {
		t.Fatalf("expected placeholder replacements, got %q", got)
	}
}

func TestWorkbookBuilder_OutputPath(t *testing.T) {
	b := newTestBuilder(pairStock(), newFakeRenderer(), nil)
	got := b.OutputPath("labels/${site}-${date}-${start}-${end}-${count}.xlsx", 6000, 200)
	want := "labels/north-2024-03-15-6000-6199-200.xlsx"
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestWorkbookBuilder_SheetPartitioning(t *testing.T) {
	tests := []struct {
		name                   string
		start, count, perSheet int64
		want                   []string
	}{
		{"one sheet", 0, 1000, 1000, []string{"0-999"}},
		{"three sheets", 0, 250, 100, []string{"0-99", "100-199", "200-249"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRecordingExcelFile()
			b := newTestBuilder(singleStock(), newFakeRenderer(), f)

			report, err := b.Build(context.Background(), tt.start, tt.count, tt.perSheet, "barcodes.xlsx")
			if err != nil {
				t.Fatalf("Build error: %v", err)
			}
			if !reflect.DeepEqual(report.Sheets, tt.want) {
				t.Errorf("report sheets = %v, want %v", report.Sheets, tt.want)
			}
			if got := f.GetSheetList(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("workbook sheets = %v, want %v (default sheet removed)", got, tt.want)
			}
			if f.savedAs != "barcodes.xlsx" {
				t.Errorf("savedAs = %q, want barcodes.xlsx", f.savedAs)
			}
			if f.active != 0 {
				t.Errorf("active sheet = %d, want 0", f.active)
			}
			if !f.closed {
				t.Error("workbook not closed")
			}
			if report.Locked {
				t.Error("report marked locked on success")
			}
		})
	}
}

func TestWorkbookBuilder_LockedOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "barcodes.xlsx")
	if err := os.WriteFile(output, []byte("previous run"), 0644); err != nil {
		t.Fatal(err)
	}
	f := newRecordingExcelFile()
	f.saveErr = &fs.PathError{Op: "open", Path: output, Err: fs.ErrPermission}
	b := newTestBuilder(pairStock(), newFakeRenderer(), f)

	report, err := b.Build(context.Background(), 0, 12, 5, output)
	if err != nil {
		t.Fatalf("Build returned error for locked output: %v", err)
	}
	if !report.Locked {
		t.Fatal("report not marked locked")
	}
	if want := []string{"0-4", "5-9", "10-11"}; !reflect.DeepEqual(f.GetSheetList(), want) {
		t.Errorf("sheets after failed save = %v, want %v", f.GetSheetList(), want)
	}
	if got := len(f.pictures); got != 24 {
		t.Errorf("pictures after failed save = %d, want 24", got)
	}
	if f.savedAs != "" {
		t.Errorf("savedAs = %q, want nothing saved", f.savedAs)
	}
}

func TestWorkbookBuilder_DeniedNewFilePropagates(t *testing.T) {
	output := filepath.Join(t.TempDir(), "readonly", "barcodes.xlsx")
	f := newRecordingExcelFile()
	f.saveErr = &fs.PathError{Op: "open", Path: output, Err: fs.ErrPermission}
	b := newTestBuilder(pairStock(), newFakeRenderer(), f)

	_, err := b.Build(context.Background(), 0, 3, 3, output)
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("error = %v, want wrapped permission error", err)
	}
}

func TestWorkbookBuilder_OtherSaveErrorsPropagate(t *testing.T) {
	diskFull := errors.New("no space left on device")
	f := newRecordingExcelFile()
	f.saveErr = diskFull
	b := newTestBuilder(pairStock(), newFakeRenderer(), f)

	if _, err := b.Build(context.Background(), 0, 3, 3, "barcodes.xlsx"); !errors.Is(err, diskFull) {
		t.Fatalf("error = %v, want wrapped disk error", err)
	}
}

func TestWorkbookBuilder_SheetErrorNamesSheet(t *testing.T) {
	renderer := newFakeRenderer()
	renderer.failAt = 150
	b := newTestBuilder(singleStock(), renderer, newRecordingExcelFile())

	_, err := b.Build(context.Background(), 0, 250, 100, "barcodes.xlsx")
	var sheetErr *SheetError
	if !errors.As(err, &sheetErr) {
		t.Fatalf("error = %v, want *SheetError", err)
	}
	if sheetErr.Sheet != "100-199" {
		t.Errorf("failing sheet = %s, want 100-199", sheetErr.Sheet)
	}
	if !errors.Is(err, errEncode) {
		t.Errorf("error chain lost the encoder failure: %v", err)
	}
}

func TestWorkbookBuilder_InvalidArguments(t *testing.T) {
	b := newTestBuilder(pairStock(), newFakeRenderer(), newRecordingExcelFile())
	ctx := context.Background()

	if _, err := b.Build(ctx, -1, 10, 10, "x.xlsx"); err == nil {
		t.Error("expected error for negative start")
	}
	if _, err := b.Build(ctx, 0, 0, 10, "x.xlsx"); err == nil {
		t.Error("expected error for zero count")
	}
	if _, err := b.Build(ctx, 0, 10, 0, "x.xlsx"); err == nil {
		t.Error("expected error for zero per sheet")
	}
	if _, err := b.Build(ctx, math.MaxInt64-2, 10, 5, "x.xlsx"); !errors.Is(err, config.ErrCodeOverflow) {
		t.Errorf("error = %v, want ErrCodeOverflow", err)
	}
}

func TestWorkbookBuilder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := newTestBuilder(pairStock(), newFakeRenderer(), newRecordingExcelFile())

	if _, err := b.Build(ctx, 0, 10, 5, "x.xlsx"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestWorkbookBuilder_Excelize(t *testing.T) {
	dir := t.TempDir()
	gen := newTestGenerator(t, pairStock(), filepath.Join(dir, "img"))
	b := newTestBuilder(pairStock(), gen, nil)

	out := filepath.Join(dir, "out", "labels-${start}.xlsx")
	report, err := b.Build(context.Background(), 0, 250, 100, out)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	want := filepath.Join(dir, "out", "labels-0.xlsx")
	if report.Output != want {
		t.Fatalf("output = %s, want %s", report.Output, want)
	}
	if report.Rows != 20+20+10 {
		t.Errorf("rows = %d, want 50", report.Rows)
	}

	f, err := excelize.OpenFile(want)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"0-99", "100-199", "200-249"}) {
		t.Fatalf("sheets = %v", got)
	}
	// code 204 is slot 4 of the first row on sheet 200-249
	for _, cell := range []string{"E1", "F1"} {
		pics, err := f.GetPictures("200-249", cell)
		if err != nil {
			t.Fatalf("GetPictures %s: %v", cell, err)
		}
		if len(pics) != 1 {
			t.Errorf("pictures at %s = %d, want 1", cell, len(pics))
		}
	}
	plain, _ := os.ReadFile(filepath.Join(dir, "img", "datamatrix_204.png"))
	pics, _ := f.GetPictures("200-249", "E1")
	if len(pics) == 1 && string(pics[0].File) != string(plain) {
		t.Error("E1 does not hold the plain image of code 204")
	}

	width, err := f.GetColWidth("0-99", "J")
	if err != nil || width != 6.5 {
		t.Errorf("column J width = %v, %v; want 6.5", width, err)
	}
	height, err := f.GetRowHeight("200-249", 10)
	if err != nil || height != 48 {
		t.Errorf("row 10 height = %v, %v; want 48", height, err)
	}
}
