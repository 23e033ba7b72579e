package core

import (
	"fmt"

	"github.com/hctony/barcode/config"
)

// Chunk is the contiguous code range placed on one worksheet.
type Chunk struct {
	Start int64
	End   int64 // inclusive
}

// Name is the worksheet name for the chunk, e.g. "6000-6099".
func (c Chunk) Name() string {
	return fmt.Sprintf("%d-%d", c.Start, c.End)
}

// PartitionRange splits [start, start+count) into chunks of perSheet codes;
// the last chunk is truncated.
func PartitionRange(start, count, perSheet int64) []Chunk {
	if count <= 0 || perSheet <= 0 || config.CheckCodeRange(start, count) != nil {
		return nil
	}
	last := start + count - 1
	chunks := make([]Chunk, 0, (count+perSheet-1)/perSheet)
	for s := start; ; s += perSheet {
		if last-s < perSheet {
			return append(chunks, Chunk{Start: s, End: last})
		}
		chunks = append(chunks, Chunk{Start: s, End: s + perSheet - 1})
	}
}

// Row is one filled worksheet row.
type Row struct {
	Index int // 1-based sheet row
	First int64
	Last  int64 // inclusive
}

// Len returns the number of codes in the row.
func (r Row) Len() int {
	return int(r.Last - r.First + 1)
}

// LayoutRows fills rows left to right with perRow codes each, starting at row 1.
func LayoutRows(start, end int64, perRow int) []Row {
	if perRow < 1 || end < start {
		return nil
	}
	n := int64(perRow)
	var rows []Row
	for first, idx := start, 1; ; first, idx = first+n, idx+1 {
		if end-first < n {
			return append(rows, Row{Index: idx, First: first, Last: end})
		}
		rows = append(rows, Row{Index: idx, First: first, Last: first + n - 1})
	}
}

// SlotColumns returns the zero-based columns used by slot i of a row.
// tagged is -1 when the layout has no tagged copy.
func SlotColumns(stock *config.StockConfig, slot int) (plain, tagged int) {
	if stock.Layout == config.LayoutMirroredPair {
		return slot, stock.Columns() - 1 - slot
	}
	return slot, -1
}
