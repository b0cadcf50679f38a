// Package model defines the data structures shared across the extraction
// and valuation pipeline.
package model

import (
	"regexp"
	"strconv"
	"strings"
)

// Cell is a single typed spreadsheet cell. Exactly one of Text/Number is
// meaningful depending on Kind; empty cells have Kind CellEmpty.
type Cell struct {
	Kind   CellKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Number float64  `json:"number,omitempty"`
}

// CellKind discriminates the cell value types.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// TextCell builds a text cell, or an empty cell for blank strings.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell builds a numeric cell.
func NumberCell(n float64) Cell {
	return Cell{Kind: CellNumber, Number: n}
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// String returns the cell's text, or the formatted number for numeric cells.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Sheet is a named read-only grid of cells. Row and column indices are 0-based.
type Sheet struct {
	Name string   `json:"name"`
	Rows [][]Cell `json:"rows"`
}

// Cell returns the cell at (row, col), or an empty cell when out of range.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) {
		return Cell{}
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return Cell{}
	}
	return r[col]
}

// RowCount returns the number of rows in the sheet.
func (s *Sheet) RowCount() int { return len(s.Rows) }

// Workbook is a list of named sheets read from a single input file.
type Workbook struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Sheets     []Sheet `json:"sheets"`
}

// SheetByName returns the sheet with the given name (case-insensitive),
// or nil when absent.
func (w *Workbook) SheetByName(name string) *Sheet {
	for i := range w.Sheets {
		if strings.EqualFold(w.Sheets[i].Name, name) {
			return &w.Sheets[i]
		}
	}
	return nil
}

var numericCellRe = regexp.MustCompile(`-?[\d.]+`)

// ParseNumber extracts a numeric value from a cell, handling formatted text
// such as "$1,234.50", "(500)" for negatives, and "12.5%". Returns (0, false)
// for empty, dash-only, or non-numeric cells.
func ParseNumber(c Cell) (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellText:
		return parseNumericText(c.Text)
	default:
		return 0, false
	}
}

func parseNumericText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "—" || strings.EqualFold(s, "n/a") {
		return 0, false
	}

	isPercent := strings.HasSuffix(s, "%")

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}

	match := numericCellRe.FindString(s)
	if match == "" || match != s {
		return 0, false
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	if isPercent {
		v /= 100
	}
	return v, true
}
