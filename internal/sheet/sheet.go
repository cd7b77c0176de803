// Package sheet renders the displayed machine list as an XLSX workbook.
package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tphummel/machine_registry/internal/models"
)

// ContentType is the media type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the name of the single worksheet.
const SheetName = "Machines"

// FileName is the download name of the workbook.
const FileName = "machines.xlsx"

// Headers are the column titles, in order.
var Headers = []string{
	"Machine Name",
	"Machine Code",
	"Section",
	"Model",
	"Serial",
	"Manufacturer",
	"Location",
	"Location Code",
	"Criticality",
}

var widths = []float64{28, 16, 18, 20, 18, 26, 22, 16, 14}

func row(m models.Machine) []any {
	return []any{
		m.MachineName,
		m.MachineCode,
		m.Section,
		m.MachineModel,
		m.MachineSerial,
		m.ManufacturerCompanyName,
		m.LocationName,
		m.LocationCode,
		m.CriticalityLevel,
	}
}

// Build creates a workbook with a header row followed by one row per
// record, in the given order. Callers must Close the returned file.
func Build(records []models.Machine) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetCellStyle(SheetName, "A1", last+"1", bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, m := range records {
		values := row(m)
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(SheetName, col, col, w)
	}
	return f, nil
}

// Write renders records and writes the workbook to w.
func Write(w io.Writer, records []models.Machine) error {
	f, err := Build(records)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
