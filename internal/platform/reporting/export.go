package reporting

import (
	"fmt"
	"sort"

	"github.com/tealeg/xlsx"
)

// BuildWorkbook renders measure results as a single-sheet workbook. Columns
// are ordered alphabetically so the layout is stable across evaluations.
func BuildWorkbook(measure *MeasureDefinition, results []map[string]interface{}) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(measure.Name)
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	columns := columnOrder(results)

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().SetString(col)
	}

	for _, result := range results {
		row := sheet.AddRow()
		for _, col := range columns {
			row.AddCell().SetValue(result[col])
		}
	}

	return file, nil
}

func columnOrder(results []map[string]interface{}) []string {
	if len(results) == 0 {
		return nil
	}
	columns := make([]string, 0, len(results[0]))
	for col := range results[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
