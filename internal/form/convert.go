package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tphummel/machine_registry/internal/models"
)

// ErrInvalidNumber is returned by Machine when a number field cannot be sent
// as the type the backend expects.
var ErrInvalidNumber = errors.New("invalid number")

// Machine converts the draft into the request body sent to the backend.
// Empty numbers and dates are sent as null. Gated dates are sent as stored,
// even while their gate is off.
func (d Draft) Machine() (models.Machine, error) {
	m := models.Machine{
		Section:                        d.Section,
		MachineName:                    d.MachineName,
		MachineCode:                    d.MachineCode,
		MachineModel:                   d.MachineModel,
		MachineSerial:                  d.MachineSerial,
		CompanyEntryDate:               optional(d.CompanyEntryDate),
		InstallationDate:               optional(d.InstallationDate),
		CriticalityLevel:               d.CriticalityLevel,
		LocationName:                   d.LocationName,
		LocationCode:                   d.LocationCode,
		FoundationType:                 d.FoundationType,
		AutomationLevel:                d.AutomationLevel,
		HasGuarantee:                   d.HasGuarantee,
		GuaranteeExpiryDate:            optional(d.GuaranteeExpiryDate),
		HasWarranty:                    d.HasWarranty,
		WarrantyExpiryDate:             optional(d.WarrantyExpiryDate),
		CurrentType:                    d.CurrentType,
		ElectricalTechnicalDescription: d.ElectricalTechnicalDescription,
		Lubricants:                     append([]models.Lubricant{}, d.Lubricants...),
		SupplierCompanyName:            d.SupplierCompanyName,
		SupplierPhone:                  d.SupplierPhone,
		SupplierAddress:                d.SupplierAddress,
		ManufacturerCompanyName:        d.ManufacturerCompanyName,
		ManufacturerPhone:              d.ManufacturerPhone,
		ManufacturerAddress:            d.ManufacturerAddress,
	}

	var err error
	floats := []struct {
		name string
		src  string
		dst  **float64
	}{
		{"length_mm", d.LengthMM, &m.LengthMM},
		{"width_mm", d.WidthMM, &m.WidthMM},
		{"height_mm", d.HeightMM, &m.HeightMM},
		{"weight_kg", d.WeightKG, &m.WeightKG},
		{"nominal_voltage", d.NominalVoltage, &m.NominalVoltage},
		{"nominal_power", d.NominalPower, &m.NominalPower},
		{"nominal_current", d.NominalCurrent, &m.NominalCurrent},
		{"maximum_consumption", d.MaximumConsumption, &m.MaximumConsumption},
		{"operating_pressure", d.OperatingPressure, &m.OperatingPressure},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.src); err != nil {
			return models.Machine{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	if m.ManufactureYear, err = parseInt(d.ManufactureYear); err != nil {
		return models.Machine{}, fmt.Errorf("manufacture_year: %w", err)
	}
	if m.PhaseCount, err = parseInt(d.PhaseCount); err != nil {
		return models.Machine{}, fmt.Errorf("phase_count: %w", err)
	}
	return m, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidNumber, s)
	}
	return &f, nil
}

func parseInt(s string) (*int64, error) {
	f, err := parseFloat(s)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt64/2 {
		return nil, fmt.Errorf("%w: %q is not a whole number", ErrInvalidNumber, s)
	}
	i := int64(*f)
	return &i, nil
}
