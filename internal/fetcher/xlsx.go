package fetcher

import (
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
)

// LoadWorkbook reads an XLSX file from disk into the in-memory workbook model.
// Every sheet is loaded; cells are typed as text or numeric based on what the
// file records, with formula cells resolved to their cached values.
func LoadWorkbook(path string) (*model.Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open xlsx %s", path)
	}

	wb := &model.Workbook{
		DocumentID: uuid.NewString(),
		Filename:   filepath.Base(path),
	}

	for _, sheet := range f.Sheets {
		wb.Sheets = append(wb.Sheets, convertSheet(sheet))
	}

	zap.L().Debug("fetcher: loaded workbook",
		zap.String("file", wb.Filename),
		zap.String("document_id", wb.DocumentID),
		zap.Int("sheets", len(wb.Sheets)))

	return wb, nil
}

func convertSheet(sheet *xlsx.Sheet) model.Sheet {
	out := model.Sheet{Name: sheet.Name}
	for _, row := range sheet.Rows {
		cells := make([]model.Cell, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = convertCell(cell)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func convertCell(cell *xlsx.Cell) model.Cell {
	switch cell.Type() {
	case xlsx.CellTypeNumeric:
		if n, err := cell.Float(); err == nil {
			return model.NumberCell(n)
		}
	case xlsx.CellTypeBool:
		if cell.Bool() {
			return model.NumberCell(1)
		}
		return model.NumberCell(0)
	}

	text := cell.String()
	if text == "" {
		return model.Cell{}
	}

	// Formula cells and text-formatted numbers still carry numeric values.
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return model.NumberCell(n)
	}

	return model.TextCell(text)
}
