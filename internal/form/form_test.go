package form_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphummel/machine_registry/internal/form"
	"github.com/tphummel/machine_registry/internal/models"
)

func ptr[T any](v T) *T { return &v }

func sampleMachine() models.Machine {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return models.Machine{
		ID:                             42,
		Section:                        "Pressing",
		MachineName:                    "Hydraulic Press",
		MachineCode:                    "HP-01",
		MachineModel:                   "X100",
		MachineSerial:                  "SN-9981",
		ManufactureYear:                ptr(int64(2015)),
		CompanyEntryDate:               ptr("2016-02-01"),
		InstallationDate:               nil,
		CriticalityLevel:               "high",
		LocationName:                   "North Wing",
		LocationCode:                   "NW-3",
		LengthMM:                       ptr(2500.0),
		WidthMM:                        nil,
		HeightMM:                       ptr(1800.5),
		WeightKG:                       ptr(4200.0),
		FoundationType:                 "فلزی",
		AutomationLevel:                "",
		HasGuarantee:                   false,
		GuaranteeExpiryDate:            ptr("2019-01-01"),
		HasWarranty:                    true,
		WarrantyExpiryDate:             ptr("2027-06-30"),
		CurrentType:                    "AC",
		PhaseCount:                     ptr(int64(3)),
		NominalVoltage:                 ptr(400.0),
		NominalPower:                   ptr(22.5),
		NominalCurrent:                 ptr(40.0),
		ElectricalTechnicalDescription: "Star-delta starter",
		MaximumConsumption:             nil,
		OperatingPressure:              ptr(210.0),
		Lubricants: []models.Lubricant{
			{RowNumber: 1, LubricantType: "ISO VG 46", AlternativeLubricantType: "HLP 46", Description: "main tank"},
			{RowNumber: 2, LubricantType: "EP2", Description: "bearings"},
		},
		SupplierCompanyName:     "Acme Supply",
		SupplierPhone:           "+98 21 5555",
		SupplierAddress:         "Tehran",
		ManufacturerCompanyName: "Acme Works",
		ManufacturerPhone:       "+49 30 1234",
		ManufacturerAddress:     "Berlin",
		CreatedAt:               &created,
	}
}

func TestDefault(t *testing.T) {
	d := form.Default()
	assert.Equal(t, "medium", d.CriticalityLevel)
	assert.Equal(t, "AC", d.CurrentType)
	assert.False(t, d.HasGuarantee)
	assert.False(t, d.HasWarranty)
	assert.NotNil(t, d.Lubricants)
	assert.Empty(t, d.Lubricants)
	assert.Empty(t, d.MachineName)
	assert.Empty(t, d.LengthMM)
}

func TestFromMachine_Normalizes(t *testing.T) {
	d := form.FromMachine(sampleMachine())
	assert.Equal(t, "Hydraulic Press", d.MachineName)
	assert.Equal(t, "2015", d.ManufactureYear)
	assert.Equal(t, "", d.InstallationDate, "null date becomes empty string")
	assert.Equal(t, "", d.WidthMM, "null number becomes empty string")
	assert.Equal(t, "1800.5", d.HeightMM)
	assert.Equal(t, "3", d.PhaseCount)
	assert.Equal(t, "2019-01-01", d.GuaranteeExpiryDate)
	assert.False(t, d.HasGuarantee)
	assert.True(t, d.HasWarranty)
	assert.Len(t, d.Lubricants, 2)
}

func TestFromMachine_EmptyEnumsKeepDefaults(t *testing.T) {
	d := form.FromMachine(models.Machine{ID: 1})
	assert.Equal(t, "medium", d.CriticalityLevel)
	assert.Equal(t, "AC", d.CurrentType)
	assert.NotNil(t, d.Lubricants)
}

func TestFromMachine_DoesNotAliasLubricants(t *testing.T) {
	m := sampleMachine()
	d := form.FromMachine(m)
	d, err := d.SetLubricant(0, form.LubricantType, "changed")
	require.NoError(t, err)
	assert.Equal(t, "ISO VG 46", m.Lubricants[0].LubricantType)
}

func TestRoundTrip_EditUnchanged(t *testing.T) {
	orig := sampleMachine()

	got, err := form.FromMachine(orig).Machine()
	require.NoError(t, err)

	// identity and timestamps come from the server, not the draft
	got.ID = orig.ID
	got.CreatedAt = orig.CreatedAt
	assert.Equal(t, orig, got)
}

func TestSet_TextField(t *testing.T) {
	d := form.Default()
	next, err := d.Set("machine_name", "Lathe")
	require.NoError(t, err)
	assert.Equal(t, "Lathe", next.MachineName)
	assert.Equal(t, "", d.MachineName, "original draft is unchanged")
}

func TestSet_NumericField(t *testing.T) {
	tests := []struct {
		value  string
		accept bool
	}{
		{"", true},
		{"12", true},
		{"12.5", true},
		{"-3", true},
		{"1e3", true},
		{".5", true},
		{"abc", false},
		{"12a", false},
		{"NaN", false},
		{"Inf", false},
		{"1,5", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			d, err := form.Default().Set("length_mm", "7")
			require.NoError(t, err)

			next, err := d.Set("length_mm", tt.value)
			if tt.accept {
				require.NoError(t, err)
				assert.Equal(t, tt.value, next.LengthMM)
				return
			}
			assert.ErrorIs(t, err, form.ErrRejected)
			assert.Equal(t, "7", next.LengthMM, "previous value retained")
		})
	}
}

func TestSet_SelectField(t *testing.T) {
	d, err := form.Default().Set("criticality_level", "critical")
	require.NoError(t, err)
	assert.Equal(t, "critical", d.CriticalityLevel)

	same, err := d.Set("criticality_level", "urgent")
	assert.ErrorIs(t, err, form.ErrRejected)
	assert.Equal(t, "critical", same.CriticalityLevel)

	d, err = d.Set("phase_count", "3")
	require.NoError(t, err)
	assert.Equal(t, "3", d.PhaseCount)
}

func TestSet_UnknownField(t *testing.T) {
	_, err := form.Default().Set("colour", "red")
	assert.ErrorIs(t, err, form.ErrUnknownField)

	_, err = form.Default().SetChecked("colour", true)
	assert.ErrorIs(t, err, form.ErrUnknownField)
}

func TestSetChecked(t *testing.T) {
	d, err := form.Default().SetChecked("has_guarantee", true)
	require.NoError(t, err)
	assert.True(t, d.HasGuarantee)

	_, err = d.SetChecked("machine_name", true)
	assert.ErrorIs(t, err, form.ErrRejected, "text fields are not checkboxes")

	d, err = d.Set("has_warranty", "true")
	require.NoError(t, err)
	assert.True(t, d.HasWarranty)
}

func TestGatedFields_Visibility(t *testing.T) {
	d := form.Default()
	assert.False(t, d.Visible("guarantee_expiry_date"))
	assert.False(t, d.Visible("warranty_expiry_date"))
	assert.True(t, d.Visible("machine_name"))
	assert.False(t, d.Visible("nope"))

	_, err := d.Set("guarantee_expiry_date", "2030-01-01")
	assert.ErrorIs(t, err, form.ErrRejected, "hidden field is not editable")

	d, err = d.SetChecked("has_guarantee", true)
	require.NoError(t, err)
	assert.True(t, d.Visible("guarantee_expiry_date"))

	d, err = d.Set("guarantee_expiry_date", "2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01", d.GuaranteeExpiryDate)
}

func TestGatedFields_ToggleOffKeepsValue(t *testing.T) {
	d, _ := form.Default().SetChecked("has_warranty", true)
	d, _ = d.Set("warranty_expiry_date", "2031-12-31")
	d, err := d.SetChecked("has_warranty", false)
	require.NoError(t, err)

	assert.False(t, d.Visible("warranty_expiry_date"))
	assert.Equal(t, "2031-12-31", d.WarrantyExpiryDate, "stored date is not erased")

	m, err := d.Machine()
	require.NoError(t, err)
	require.NotNil(t, m.WarrantyExpiryDate)
	assert.Equal(t, "2031-12-31", *m.WarrantyExpiryDate)
	_, ok := m.WarrantyExpiry()
	assert.False(t, ok, "date is logically absent while gate is off")
}

// A record created with the gate off keeps its date, and the field stays
// hidden on the next edit until the gate is turned on.
func TestGatedFields_ScenarioD(t *testing.T) {
	persisted := models.Machine{ID: 9, HasGuarantee: false, GuaranteeExpiryDate: ptr("2029-05-01")}

	d := form.FromMachine(persisted)
	assert.False(t, d.Visible("guarantee_expiry_date"))
	names := fieldNames(d.VisibleFields())
	assert.NotContains(t, names, "guarantee_expiry_date")

	d, _ = d.SetChecked("has_guarantee", true)
	assert.True(t, d.Visible("guarantee_expiry_date"))
	got, _ := d.Get("guarantee_expiry_date")
	assert.Equal(t, "2029-05-01", got)
}

func fieldNames(fields []form.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestLubricants(t *testing.T) {
	d := form.Default().AddLubricant().AddLubricant()
	require.Len(t, d.Lubricants, 2)
	assert.Equal(t, models.Lubricant{}, d.Lubricants[0])

	before := d
	d, err := d.SetLubricant(1, form.LubricantType, "ISO VG 68")
	require.NoError(t, err)
	d, err = d.SetLubricant(1, form.AlternativeLubricantType, "HLP 68")
	require.NoError(t, err)
	d, err = d.SetLubricant(1, form.LubricantDescription, "gearbox")
	require.NoError(t, err)
	assert.Equal(t, models.Lubricant{LubricantType: "ISO VG 68", AlternativeLubricantType: "HLP 68", Description: "gearbox"}, d.Lubricants[1])
	assert.Equal(t, "", before.Lubricants[1].LubricantType, "replacement semantics: earlier draft untouched")

	d, err = d.RemoveLubricant(0)
	require.NoError(t, err)
	require.Len(t, d.Lubricants, 1)
	assert.Equal(t, "gearbox", d.Lubricants[0].Description)
	assert.Len(t, before.Lubricants, 2)
}

func TestLubricants_DuplicatesAllowed(t *testing.T) {
	d := form.Default().AddLubricant().AddLubricant()
	d, _ = d.SetLubricant(0, form.LubricantType, "EP2")
	d, _ = d.SetLubricant(1, form.LubricantType, "EP2")
	assert.Equal(t, d.Lubricants[0], d.Lubricants[1])
}

func TestLubricants_BadIndexOrField(t *testing.T) {
	d := form.Default().AddLubricant()

	_, err := d.RemoveLubricant(3)
	assert.ErrorIs(t, err, form.ErrLubricantIndex)
	_, err = d.RemoveLubricant(-1)
	assert.ErrorIs(t, err, form.ErrLubricantIndex)
	_, err = d.SetLubricant(1, form.LubricantType, "x")
	assert.ErrorIs(t, err, form.ErrLubricantIndex)
	_, err = d.SetLubricant(0, "viscosity", "x")
	assert.ErrorIs(t, err, form.ErrUnknownField)
}

func TestMissing(t *testing.T) {
	d := form.Default()
	missing := d.Missing()
	assert.Contains(t, missing, "machine_name")
	assert.Contains(t, missing, "nominal_voltage")
	assert.NotContains(t, missing, "criticality_level", "defaulted select is filled")
	assert.NotContains(t, missing, "guarantee_expiry_date", "hidden gated field is not required")

	d, _ = d.SetChecked("has_guarantee", true)
	assert.Contains(t, d.Missing(), "guarantee_expiry_date")

	var merr *form.MissingError
	require.True(t, errors.As(d.Validate(), &merr))
	assert.Equal(t, d.Missing(), merr.Fields)

	full := form.FromMachine(sampleMachine())
	assert.NoError(t, full.Validate())
}

func TestMachine_Conversion(t *testing.T) {
	d := form.Default()
	d, _ = d.Set("manufacture_year", "2020")
	d, _ = d.Set("weight_kg", "12.25")

	m, err := d.Machine()
	require.NoError(t, err)
	require.NotNil(t, m.ManufactureYear)
	assert.Equal(t, int64(2020), *m.ManufactureYear)
	require.NotNil(t, m.WeightKG)
	assert.Equal(t, 12.25, *m.WeightKG)
	assert.Nil(t, m.LengthMM)
	assert.Nil(t, m.InstallationDate)
	assert.Zero(t, m.ID)
	assert.NotNil(t, m.Lubricants)
}

func TestMachine_IntegerFieldRejectsFraction(t *testing.T) {
	d, _ := form.Default().Set("manufacture_year", "2020.5")
	_, err := d.Machine()
	assert.ErrorIs(t, err, form.ErrInvalidNumber)
}

func TestFieldsRegistry(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range form.Fields {
		assert.False(t, seen[f.Name], "duplicate field %s", f.Name)
		seen[f.Name] = true
		if f.Gate != "" {
			g, ok := form.Lookup(f.Gate)
			require.True(t, ok, "gate %s of %s", f.Gate, f.Name)
			assert.Equal(t, form.KindCheckbox, g.Kind)
		}
	}
	f, ok := form.Lookup("nominal_power")
	require.True(t, ok)
	assert.Equal(t, form.KindNumber, f.Kind)
	assert.True(t, f.Required)
}
