package outputs

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tanjoen/forenaide/internal/schema"
)

const sheetName = "Extractions"

// EncodeXLSX renders an XLSX workbook for the API download path. Same layout
// as the CSV: one column per schema field, one row per instance.
func EncodeXLSX(cfg *schema.Config, rows []schema.RowInstance) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, field := range cfg.Fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, field.Name); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		for c, field := range cfg.Fields {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			val, err := formatCell(row[field.Name])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", field.Name, err)
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
