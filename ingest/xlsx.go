package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErpSheetName is the tab the ERP export writes order data to. Older exports
// have it as the only sheet, so we fall back to the first one.
const ErpSheetName = "Pag"

// ReadErpXLSX reads the ERP order spreadsheet into rows, first sheet row being
// the header. Cell values arrive as display strings; date parsing happens later.
func ReadErpXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := ""
	for _, name := range f.GetSheetList() {
		if name == ErpSheetName {
			sheet = name
			break
		}
	}
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx has no sheets")
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, nil
	}

	headers := cells[0]
	rows := make([]Row, 0, len(cells)-1)
	for i, values := range cells[1:] {
		if isEmptyLine(values) {
			continue
		}
		rows = append(rows, NewRow(headers, values, i+1))
	}
	return rows, nil
}

func isEmptyLine(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}
