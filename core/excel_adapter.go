package core

import "github.com/xuri/excelize/v2"

// ExcelFile abstracts workbook operations to decouple builder logic from excelize.
type ExcelFile interface {
	AddPicture(sheet, cell, path string, opts *excelize.GraphicOptions) error
	Close() error
	DeleteSheet(name string) error
	GetSheetList() []string
	NewSheet(name string) (int, error)
	SaveAs(name string) error
	SetActiveSheet(index int)
	SetColWidth(sheet, startCol, endCol string, width float64) error
	SetRowHeight(sheet string, row int, height float64) error
	SetSelection(sheetName, cell string) error
}

type ExcelizeFile struct {
	file *excelize.File
}

// NewExcelFile returns an empty excelize workbook.
func NewExcelFile() ExcelFile {
	return &ExcelizeFile{file: excelize.NewFile()}
}

func (e *ExcelizeFile) AddPicture(sheet, cell, path string, opts *excelize.GraphicOptions) error {
	return e.file.AddPicture(sheet, cell, path, opts)
}

func (e *ExcelizeFile) Close() error {
	return e.file.Close()
}

func (e *ExcelizeFile) DeleteSheet(name string) error {
	return e.file.DeleteSheet(name)
}

func (e *ExcelizeFile) GetSheetList() []string {
	return e.file.GetSheetList()
}

func (e *ExcelizeFile) NewSheet(name string) (int, error) {
	return e.file.NewSheet(name)
}

func (e *ExcelizeFile) SaveAs(name string) error {
	return e.file.SaveAs(name)
}

func (e *ExcelizeFile) SetActiveSheet(index int) {
	e.file.SetActiveSheet(index)
}

func (e *ExcelizeFile) SetColWidth(sheet, startCol, endCol string, width float64) error {
	return e.file.SetColWidth(sheet, startCol, endCol, width)
}

func (e *ExcelizeFile) SetRowHeight(sheet string, row int, height float64) error {
	return e.file.SetRowHeight(sheet, row, height)
}

func (e *ExcelizeFile) SetSelection(sheetName, cell string) error {
	selection := []excelize.Selection{{ActiveCell: cell, SQRef: cell}}

	// Keep frozen/split panes if the sheet has any
	panes, err := e.file.GetPanes(sheetName)
	if err == nil {
		panes.Selection = selection
		return e.file.SetPanes(sheetName, &panes)
	}
	return e.file.SetPanes(sheetName, &excelize.Panes{Selection: selection})
}
