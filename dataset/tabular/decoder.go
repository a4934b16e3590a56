package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"
)

type csvDecoder struct {
	comma rune
}

func (d *csvDecoder) Rows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	if d.comma != 0 {
		reader.Comma = d.comma
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// excelDecoder reads the first sheet of an xlsx workbook.
type excelDecoder struct{}

func (d *excelDecoder) Rows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// xlsDecoder reads the first non-empty sheet of a legacy xls workbook.
type xlsDecoder struct{}

func (d *xlsDecoder) Rows(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		rows := sheet.GetRows()
		if len(rows) == 0 {
			continue
		}
		out := make([][]string, 0, len(rows))
		for _, row := range rows {
			out = append(out, cellValues(row.GetCols()))
		}
		return out, nil
	}
	return nil, fmt.Errorf("workbook has no rows")
}

func cellValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
