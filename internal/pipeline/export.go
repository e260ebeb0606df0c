package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"posclean/internal"
	"posclean/internal/util"
)

var itemHeaders = []string{"item_code", "item_desc", "item_type", "item_brand", "item_size", "item_uom", "item_note"}

func ExportItemsToXLSX(items []internal.ItemRecord, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range itemHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, item := range items {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, util.Deref(item.Code))
		set(2, util.Deref(item.Desc))
		set(3, util.Deref(item.Type))
		set(4, util.Deref(item.Brand))
		if item.Size.Valid {
			size, _ := item.Size.Decimal.Float64()
			set(5, size)
		}
		set(6, util.Deref(item.UOM))
		set(7, util.Deref(item.Note))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
