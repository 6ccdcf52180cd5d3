package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomotopia/districtr/domain/contiguity"

	"github.com/xuri/excelize/v2"
)

// ContiguitySheet is the sheet name of the contiguity export
const ContiguitySheet = "Contiguity"

// ContiguityExport is the data written to the contiguity workbook
type ContiguityExport struct {
	Place    string
	Status   contiguity.Status
	Parts    []contiguity.Part
	Registry contiguity.Registry
}

var reportColumns = []string{"District", "Name", "Contiguity", "Highlighted", "Island units"}

// WriteContiguityReport writes a one-sheet workbook with a row per district
func WriteContiguityReport(w io.Writer, export ContiguityExport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ContiguitySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	title := export.Status.Header
	if export.Place != "" {
		title = fmt.Sprintf("%s: %s", export.Place, title)
	}
	if err := f.SetCellValue(ContiguitySheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(ContiguitySheet, "A1", "A1", bold); err != nil {
		return err
	}

	header := make([]interface{}, len(reportColumns))
	for i, c := range reportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(ContiguitySheet, "A3", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(ContiguitySheet, "A3", "E3", bold); err != nil {
		return err
	}

	names := make(map[int]string, len(export.Parts))
	for _, part := range export.Parts {
		names[part.Index] = part.Name
	}

	for i, row := range export.Status.Rows {
		state := "contiguous"
		if row.Visible {
			state = "gaps"
		}
		values := []interface{}{
			row.Number,
			names[row.District],
			state,
			row.Checked,
			strings.Join(export.Registry[row.District], ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ContiguitySheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write district %d: %w", row.Number, err)
		}
	}

	if err := f.SetColWidth(ContiguitySheet, "B", "B", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(ContiguitySheet, "E", "E", 60); err != nil {
		return err
	}

	return f.Write(w)
}
