package s2_export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/storagelimits/internal/contracts"
)

// SheetName is the single sheet of the XLSX document
const SheetName = "Limits"

// RenderXLSX lays the CSV rows out on one sheet
func RenderXLSX(doc Document, limits []contracts.Limit) ([]byte, error) {
	if len(limits) == 0 {
		return nil, ErrEmptyBatch
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	for i, row := range table(doc, limits) {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 12)
	_ = f.SetColWidth(SheetName, "B", "B", 24)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
