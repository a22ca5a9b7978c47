package sheets

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Render adds sheet to f as a new worksheet.
func Render(f *excelize.File, sheet Sheet) error {
	if _, err := f.NewSheet(sheet.Name); err != nil {
		return fmt.Errorf("Render: failed to add worksheet %s: %w", sheet.Name, err)
	}

	if sheet.RowHeight > 0 {
		height := sheet.RowHeight
		customHeight := true
		if err := f.SetSheetProps(sheet.Name, &excelize.SheetPropsOptions{
			DefaultRowHeight: &height,
			CustomHeight:     &customHeight,
		}); err != nil {
			return fmt.Errorf("Render: %s: failed to set row height: %w", sheet.Name, err)
		}
	}

	for col := 1; col <= LastColumn; col++ {
		width, found := sheet.ColumnWidths[col]
		if !found {
			continue
		}

		name := columnName(col)
		if err := f.SetColWidth(sheet.Name, name, name, width); err != nil {
			return fmt.Errorf("Render: %s: failed to set width of column %s: %w", sheet.Name, name, err)
		}
	}

	if len(sheet.BorderRows) > 0 {
		style, err := f.NewStyle(&excelize.Style{
			Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
		})
		if err != nil {
			return fmt.Errorf("Render: failed to create border style: %w", err)
		}

		for _, row := range sheet.BorderRows {
			if err := f.SetRowStyle(sheet.Name, row, row, style); err != nil {
				return fmt.Errorf("Render: %s: failed to style row %d: %w", sheet.Name, row, err)
			}
		}
	}

	for _, cell := range sheet.Cells {
		if err := writeCell(f, sheet.Name, cell); err != nil {
			return fmt.Errorf("Render: %s: %w", sheet.Name, err)
		}
	}

	return nil
}

func writeCell(f *excelize.File, sheetName string, cell Cell) error {
	var err error

	switch cell.Value.Kind {
	case KindNumber:
		err = f.SetCellFloat(sheetName, cell.Ref, cell.Value.Number, -1, 64)
	case KindFormula:
		err = f.SetCellFormula(sheetName, cell.Ref, cell.Value.Text)
	default:
		err = f.SetCellStr(sheetName, cell.Ref, cell.Value.Text)
	}

	if err != nil {
		return fmt.Errorf("writeCell: %s: %w", cell.Ref, err)
	}

	return nil
}
