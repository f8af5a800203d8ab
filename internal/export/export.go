// Package export renders completed records as spreadsheet files.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"form-digitizer/internal/models"
	"form-digitizer/pkg/fields"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Registrations"

var ErrNothingToExport = errors.New("nothing to export")

// completed returns the data of completed records, keeping their order.
func completed(recs []models.ProcessingRecord) []models.RegistrationData {
	out := make([]models.RegistrationData, 0, len(recs))
	for _, r := range recs {
		if r.Status == models.StatusCompleted && r.Data != nil {
			out = append(out, *r.Data)
		}
	}
	return out
}

// Header lists the columns taken from the first completed record, in
// canonical field order.
func Header(first models.RegistrationData) []string {
	keys := first.ToMap()
	header := make([]string, 0, len(keys))
	for _, n := range fields.Names {
		if _, ok := keys[n]; ok {
			header = append(header, n)
		}
	}
	return header
}

// CSV quotes every value and doubles embedded quotes. Rows are joined with
// "\n" and there is no trailing newline.
func CSV(recs []models.ProcessingRecord) ([]byte, error) {
	rows := completed(recs)
	if len(rows) == 0 {
		return nil, ErrNothingToExport
	}
	header := Header(rows[0])

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(header, ","))
	for _, d := range rows {
		cells := make([]string, len(header))
		for i, col := range header {
			cells[i] = quote(d.Get(col))
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// XLSX writes the same table as CSV into a single worksheet.
func XLSX(recs []models.ProcessingRecord) ([]byte, error) {
	rows := completed(recs)
	if len(rows) == 0 {
		return nil, ErrNothingToExport
	}
	header := Header(rows[0])

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("open stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	titles := make([]interface{}, len(header))
	for i, col := range header {
		titles[i] = excelize.Cell{StyleID: bold, Value: fields.Labels[col]}
	}
	if err := sw.SetRow("A1", titles); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for r, d := range rows {
		cells := make([]interface{}, len(header))
		for i, col := range header {
			// text cells keep leading zeros and long digit strings intact
			cells[i] = d.Get(col)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
