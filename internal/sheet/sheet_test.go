package sheet_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tphummel/machine_registry/internal/models"
	"github.com/tphummel/machine_registry/internal/sheet"
)

func TestWrite_RoundTrip(t *testing.T) {
	records := []models.Machine{
		{
			MachineName: "Lathe", MachineCode: "LT-1", Section: "Turning", MachineModel: "X200",
			MachineSerial: "SN1", ManufacturerCompanyName: "Acme", LocationName: "Hall A",
			LocationCode: "HA", CriticalityLevel: "critical",
		},
		{MachineName: "Press", MachineCode: "PR-2", CriticalityLevel: "low"},
	}

	var buf bytes.Buffer
	require.NoError(t, sheet.Write(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, sheet.SheetName, f.GetSheetName(0))
	rows, err := f.GetRows(sheet.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, sheet.Headers, rows[0])
	assert.Equal(t, []string{"Lathe", "LT-1", "Turning", "X200", "SN1", "Acme", "Hall A", "HA", "critical"}, rows[1])
	// GetRows trims trailing empty cells.
	assert.Equal(t, "Press", rows[2][0])
	assert.Equal(t, "PR-2", rows[2][1])
	assert.Equal(t, "low", rows[2][8])
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sheet.Write(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
