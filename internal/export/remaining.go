// Package export writes the remaining-inventory snapshot as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"retail-erp/internal/core"

	"github.com/xuri/excelize/v2"
)

// Columns is the header row shared by every export format.
var Columns = []string{
	"location",
	"product_category",
	"product_name",
	"color",
	"size",
	"total_in",
	"total_sold",
	"remaining_qty",
}

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// RemainingFilename names the download for a snapshot date, e.g.
// remaining_inventory_as_of_2026-03-31.csv.
func RemainingFilename(asOf, ext string) string {
	return fmt.Sprintf("remaining_inventory_as_of_%s.%s", asOf, ext)
}

func record(r core.RemainingRow) []string {
	return []string{
		r.Location,
		r.ProductCategory,
		r.ProductName,
		r.Color,
		r.Size,
		core.To2(r.TotalIn),
		core.To2(r.TotalSold),
		core.To2(r.RemainingQty),
	}
}

// WriteRemainingCSV writes rows under the fixed header. Fields containing a comma,
// a double quote or a line break are quoted, with quotes doubled. Lines end in \n.
func WriteRemainingCSV(w io.Writer, rows []core.RemainingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

const sheetName = "Remaining"

// WriteRemainingXLSX writes rows as a single-sheet workbook with a bold header and
// numeric quantity cells.
func WriteRemainingXLSX(w io.Writer, rows []core.RemainingRow, asOf string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	numFmt := "0.00"
	qty, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(sheetName, "A1", last+"1", bold); err != nil {
		return err
	}

	for i, r := range rows {
		row := i + 2
		values := []any{
			r.Location,
			r.ProductCategory,
			r.ProductName,
			r.Color,
			r.Size,
			r.TotalIn.Round(2).InexactFloat64(),
			r.TotalSold.Round(2).InexactFloat64(),
			r.RemainingQty.Round(2).InexactFloat64(),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}
	if len(rows) > 0 {
		from, _ := excelize.CoordinatesToCellName(6, 2)
		to, _ := excelize.CoordinatesToCellName(8, len(rows)+1)
		if err := f.SetCellStyle(sheetName, from, to, qty); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheetName, "A", "E", 18)
	_ = f.SetColWidth(sheetName, "F", "H", 12)
	_ = f.SetDocProps(&excelize.DocProperties{Title: "Remaining inventory as of " + asOf})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
