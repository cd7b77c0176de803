// Package form holds the editable draft of one machine record and the rules
// that shape user input before it is submitted.
package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tphummel/machine_registry/internal/models"
)

var (
	// ErrRejected is returned when an input value is discarded, such as a
	// non-numeric keystroke in a number field. Callers drop it silently; the
	// draft keeps its previous value.
	ErrRejected = errors.New("input rejected")

	// ErrUnknownField is returned for a field name the form does not have.
	ErrUnknownField = errors.New("unknown field")

	// ErrLubricantIndex is returned for a lubricant row that does not exist.
	ErrLubricantIndex = errors.New("lubricant index out of range")
)

// MissingError lists required fields left empty.
type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return "required fields missing: " + strings.Join(e.Fields, ", ")
}

// Draft is the in-progress state of the machine form. All scalar controls
// hold their text as entered; checkboxes hold booleans.
type Draft struct {
	Section       string `json:"section"`
	MachineName   string `json:"machine_name"`
	MachineCode   string `json:"machine_code"`
	MachineModel  string `json:"machine_model"`
	MachineSerial string `json:"machine_serial"`

	ManufactureYear  string `json:"manufacture_year"`
	CompanyEntryDate string `json:"company_entry_date"`
	InstallationDate string `json:"installation_date"`

	CriticalityLevel string `json:"criticality_level"`
	LocationName     string `json:"location_name"`
	LocationCode     string `json:"location_code"`

	LengthMM string `json:"length_mm"`
	WidthMM  string `json:"width_mm"`
	HeightMM string `json:"height_mm"`
	WeightKG string `json:"weight_kg"`

	FoundationType  string `json:"foundation_type"`
	AutomationLevel string `json:"automation_level"`

	HasGuarantee        bool   `json:"has_guarantee"`
	GuaranteeExpiryDate string `json:"guarantee_expiry_date"`
	HasWarranty         bool   `json:"has_warranty"`
	WarrantyExpiryDate  string `json:"warranty_expiry_date"`

	CurrentType                    string `json:"current_type"`
	PhaseCount                     string `json:"phase_count"`
	NominalVoltage                 string `json:"nominal_voltage"`
	NominalPower                   string `json:"nominal_power"`
	NominalCurrent                 string `json:"nominal_current"`
	ElectricalTechnicalDescription string `json:"electrical_technical_description"`
	MaximumConsumption             string `json:"maximum_consumption"`

	OperatingPressure string             `json:"operating_pressure"`
	Lubricants        []models.Lubricant `json:"lubricants"`

	SupplierCompanyName string `json:"supplier_company_name"`
	SupplierPhone       string `json:"supplier_phone"`
	SupplierAddress     string `json:"supplier_address"`

	ManufacturerCompanyName string `json:"manufacturer_company_name"`
	ManufacturerPhone       string `json:"manufacturer_phone"`
	ManufacturerAddress     string `json:"manufacturer_address"`
}

// Default returns the blank draft used for a new record.
func Default() Draft {
	return Draft{
		CriticalityLevel: models.CriticalityMedium,
		CurrentType:      "AC",
		Lubricants:       []models.Lubricant{},
	}
}

// FromMachine returns the default draft overlaid with m. Null numbers and
// dates become empty strings.
func FromMachine(m models.Machine) Draft {
	d := Default()

	d.Section = m.Section
	d.MachineName = m.MachineName
	d.MachineCode = m.MachineCode
	d.MachineModel = m.MachineModel
	d.MachineSerial = m.MachineSerial
	d.ManufactureYear = formatInt(m.ManufactureYear)
	d.CompanyEntryDate = deref(m.CompanyEntryDate)
	d.InstallationDate = deref(m.InstallationDate)
	d.LocationName = m.LocationName
	d.LocationCode = m.LocationCode
	d.LengthMM = formatFloat(m.LengthMM)
	d.WidthMM = formatFloat(m.WidthMM)
	d.HeightMM = formatFloat(m.HeightMM)
	d.WeightKG = formatFloat(m.WeightKG)
	d.FoundationType = m.FoundationType
	d.AutomationLevel = m.AutomationLevel
	d.HasGuarantee = m.HasGuarantee
	d.GuaranteeExpiryDate = deref(m.GuaranteeExpiryDate)
	d.HasWarranty = m.HasWarranty
	d.WarrantyExpiryDate = deref(m.WarrantyExpiryDate)
	d.PhaseCount = formatInt(m.PhaseCount)
	d.NominalVoltage = formatFloat(m.NominalVoltage)
	d.NominalPower = formatFloat(m.NominalPower)
	d.NominalCurrent = formatFloat(m.NominalCurrent)
	d.ElectricalTechnicalDescription = m.ElectricalTechnicalDescription
	d.MaximumConsumption = formatFloat(m.MaximumConsumption)
	d.OperatingPressure = formatFloat(m.OperatingPressure)
	d.SupplierCompanyName = m.SupplierCompanyName
	d.SupplierPhone = m.SupplierPhone
	d.SupplierAddress = m.SupplierAddress
	d.ManufacturerCompanyName = m.ManufacturerCompanyName
	d.ManufacturerPhone = m.ManufacturerPhone
	d.ManufacturerAddress = m.ManufacturerAddress

	// Empty enum columns keep the form defaults.
	if m.CriticalityLevel != "" {
		d.CriticalityLevel = m.CriticalityLevel
	}
	if m.CurrentType != "" {
		d.CurrentType = m.CurrentType
	}
	if len(m.Lubricants) > 0 {
		d.Lubricants = append([]models.Lubricant(nil), m.Lubricants...)
	}
	return d
}

// Get returns the current text of a non-checkbox field.
func (d Draft) Get(name string) (string, bool) {
	f, ok := fieldIndex[name]
	if !ok || f.text == nil {
		return "", false
	}
	return *f.text(&d), true
}

// Set updates a text, number, date or select field by wire name and returns
// the new draft. A rejected value leaves the draft as it was.
func (d Draft) Set(name, value string) (Draft, error) {
	f, ok := fieldIndex[name]
	if !ok {
		return d, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if f.Kind == KindCheckbox {
		checked, err := strconv.ParseBool(value)
		if err != nil {
			return d, ErrRejected
		}
		return d.SetChecked(name, checked)
	}
	if !d.Visible(name) {
		return d, ErrRejected
	}
	switch f.Kind {
	case KindNumber:
		if !numeric(value) {
			return d, ErrRejected
		}
	case KindSelect:
		if !f.allows(value) {
			return d, ErrRejected
		}
	}
	out := d.clone()
	*f.text(&out) = value
	return out, nil
}

// SetChecked updates a checkbox field. Turning a gate off hides its dependent
// field but keeps the stored value.
func (d Draft) SetChecked(name string, checked bool) (Draft, error) {
	f, ok := fieldIndex[name]
	if !ok {
		return d, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if f.flag == nil {
		return d, ErrRejected
	}
	out := d.clone()
	*f.flag(&out) = checked
	return out, nil
}

// Visible reports whether the named field is currently shown.
func (d Draft) Visible(name string) bool {
	f, ok := fieldIndex[name]
	if !ok {
		return false
	}
	if f.Gate == "" {
		return true
	}
	g := fieldIndex[f.Gate]
	return *g.flag(&d)
}

// VisibleFields returns the fields currently shown, in display order.
func (d Draft) VisibleFields() []Field {
	out := make([]Field, 0, len(Fields))
	for _, f := range Fields {
		if d.Visible(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// Missing returns the names of visible required fields that are empty.
func (d Draft) Missing() []string {
	var out []string
	for _, f := range Fields {
		if !f.Required || f.text == nil || !d.Visible(f.Name) {
			continue
		}
		if strings.TrimSpace(*f.text(&d)) == "" {
			out = append(out, f.Name)
		}
	}
	return out
}

// Validate returns a *MissingError when required fields are empty.
func (d Draft) Validate() error {
	if missing := d.Missing(); len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	return nil
}

func (d Draft) clone() Draft {
	out := d
	out.Lubricants = append([]models.Lubricant{}, d.Lubricants...)
	return out
}

// numeric accepts the empty string or any finite number.
func numeric(s string) bool {
	if s == "" {
		return true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(i *int64) string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(*i, 10)
}
