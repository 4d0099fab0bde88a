package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"searchabull-keyword-engine/pkg/table"
)

// ReadGrid reads a sheet written by this package. Cells under text
// columns stay text; other non-blank cells are parsed as integers.
func ReadGrid(data []byte, sheetName string) (table.Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return table.Grid{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return table.Grid{}, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return table.Grid{}, fmt.Errorf("sheet %s is empty", sheetName)
	}

	g := table.Grid{Header: rows[0]}
	for n, raw := range rows[1:] {
		cells := make([]table.Cell, len(g.Header))
		for i := range g.Header {
			if i >= len(raw) {
				continue
			}
			value := raw[i]
			switch {
			case textColumns[g.Header[i]]:
				cells[i] = table.Text(value)
			case strings.TrimSpace(value) == "":
			default:
				v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
				if err != nil {
					return table.Grid{}, fmt.Errorf("row %d, column %q: invalid number %q", n+2, g.Header[i], value)
				}
				cells[i] = table.Number(v)
			}
		}
		g.Rows = append(g.Rows, cells)
	}
	return g, nil
}

// ReadTable reads the data sheet back into a table.
func ReadTable(data []byte, sheetName string) (*table.Table, error) {
	g, err := ReadGrid(data, sheetName)
	if err != nil {
		return nil, err
	}
	return table.FromGrid(g)
}
