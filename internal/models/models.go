package models

import (
	"strconv"
	"time"
)

// Machine represents a registered piece of equipment in the maintenance
// inventory. Nullable numeric and date columns are pointers; nullable text
// columns decode JSON null as "".
type Machine struct {
	ID int64 `json:"id,omitempty"`

	Section       string `json:"section"`
	MachineName   string `json:"machine_name"`
	MachineCode   string `json:"machine_code"`
	MachineModel  string `json:"machine_model"`
	MachineSerial string `json:"machine_serial"`

	ManufactureYear  *int64  `json:"manufacture_year"`
	CompanyEntryDate *string `json:"company_entry_date"`
	InstallationDate *string `json:"installation_date"`

	CriticalityLevel string `json:"criticality_level"`
	LocationName     string `json:"location_name"`
	LocationCode     string `json:"location_code"`

	LengthMM *float64 `json:"length_mm"`
	WidthMM  *float64 `json:"width_mm"`
	HeightMM *float64 `json:"height_mm"`
	WeightKG *float64 `json:"weight_kg"`

	FoundationType  string `json:"foundation_type"`
	AutomationLevel string `json:"automation_level"`

	HasGuarantee        bool    `json:"has_guarantee"`
	GuaranteeExpiryDate *string `json:"guarantee_expiry_date"`
	HasWarranty         bool    `json:"has_warranty"`
	WarrantyExpiryDate  *string `json:"warranty_expiry_date"`

	CurrentType                    string   `json:"current_type"`
	PhaseCount                     *int64   `json:"phase_count"`
	NominalVoltage                 *float64 `json:"nominal_voltage"`
	NominalPower                   *float64 `json:"nominal_power"`
	NominalCurrent                 *float64 `json:"nominal_current"`
	ElectricalTechnicalDescription string   `json:"electrical_technical_description"`
	MaximumConsumption             *float64 `json:"maximum_consumption"`

	OperatingPressure *float64    `json:"operating_pressure"`
	Lubricants        []Lubricant `json:"lubricants"`

	SupplierCompanyName string `json:"supplier_company_name"`
	SupplierPhone       string `json:"supplier_phone"`
	SupplierAddress     string `json:"supplier_address"`

	ManufacturerCompanyName string `json:"manufacturer_company_name"`
	ManufacturerPhone       string `json:"manufacturer_phone"`
	ManufacturerAddress     string `json:"manufacturer_address"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Lubricant is one row of a machine's lubrication table. RowNumber is
// assigned by the server from the row's position.
type Lubricant struct {
	RowNumber                int    `json:"row_number,omitempty"`
	LubricantType            string `json:"lubricant_type"`
	AlternativeLubricantType string `json:"alternative_lubricant_type"`
	Description              string `json:"description"`
}

// Persisted reports whether the record has a server-assigned identity.
func (m Machine) Persisted() bool {
	return m.ID != 0
}

// GuaranteeExpiry returns the guarantee expiry date. The date is absent while
// HasGuarantee is false, whatever value is stored.
func (m Machine) GuaranteeExpiry() (string, bool) {
	return gated(m.HasGuarantee, m.GuaranteeExpiryDate)
}

// WarrantyExpiry returns the warranty expiry date, absent while HasWarranty is false.
func (m Machine) WarrantyExpiry() (string, bool) {
	return gated(m.HasWarranty, m.WarrantyExpiryDate)
}

func gated(on bool, date *string) (string, bool) {
	if !on || date == nil || *date == "" {
		return "", false
	}
	return *date, true
}

// Criticality levels.
const (
	CriticalityLow      = "low"
	CriticalityMedium   = "medium"
	CriticalityHigh     = "high"
	CriticalityCritical = "critical"
)

// ValidCriticality is the set of allowed criticality_level values.
var ValidCriticality = map[string]bool{
	CriticalityLow:      true,
	CriticalityMedium:   true,
	CriticalityHigh:     true,
	CriticalityCritical: true,
}

// ValidCurrentTypes is the set of allowed current_type values.
var ValidCurrentTypes = map[string]bool{
	"AC": true,
	"DC": true,
}

// Value is a raw field value as seen by the list view. Absent covers both
// JSON null and an empty text column.
type Value struct {
	Text    string
	Number  float64
	Numeric bool
	Absent  bool
}

func text(s string) Value {
	return Value{Text: s, Absent: s == ""}
}

func textPtr(s *string) Value {
	if s == nil {
		return Value{Absent: true}
	}
	return text(*s)
}

func float(f *float64) Value {
	if f == nil {
		return Value{Absent: true}
	}
	return Value{Text: strconv.FormatFloat(*f, 'f', -1, 64), Number: *f, Numeric: true}
}

func integer(i *int64) Value {
	if i == nil {
		return Value{Absent: true}
	}
	return Value{Text: strconv.FormatInt(*i, 10), Number: float64(*i), Numeric: true}
}

func flag(b bool) Value {
	if b {
		return Value{Text: "true", Number: 1, Numeric: true}
	}
	return Value{Text: "false", Numeric: true}
}

var fieldValues = map[string]func(*Machine) Value{
	"id": func(m *Machine) Value {
		if m.ID == 0 {
			return Value{Absent: true}
		}
		return Value{Text: strconv.FormatInt(m.ID, 10), Number: float64(m.ID), Numeric: true}
	},
	"section":                          func(m *Machine) Value { return text(m.Section) },
	"machine_name":                     func(m *Machine) Value { return text(m.MachineName) },
	"machine_code":                     func(m *Machine) Value { return text(m.MachineCode) },
	"machine_model":                    func(m *Machine) Value { return text(m.MachineModel) },
	"machine_serial":                   func(m *Machine) Value { return text(m.MachineSerial) },
	"manufacture_year":                 func(m *Machine) Value { return integer(m.ManufactureYear) },
	"company_entry_date":               func(m *Machine) Value { return textPtr(m.CompanyEntryDate) },
	"installation_date":                func(m *Machine) Value { return textPtr(m.InstallationDate) },
	"criticality_level":                func(m *Machine) Value { return text(m.CriticalityLevel) },
	"location_name":                    func(m *Machine) Value { return text(m.LocationName) },
	"location_code":                    func(m *Machine) Value { return text(m.LocationCode) },
	"length_mm":                        func(m *Machine) Value { return float(m.LengthMM) },
	"width_mm":                         func(m *Machine) Value { return float(m.WidthMM) },
	"height_mm":                        func(m *Machine) Value { return float(m.HeightMM) },
	"weight_kg":                        func(m *Machine) Value { return float(m.WeightKG) },
	"foundation_type":                  func(m *Machine) Value { return text(m.FoundationType) },
	"automation_level":                 func(m *Machine) Value { return text(m.AutomationLevel) },
	"has_guarantee":                    func(m *Machine) Value { return flag(m.HasGuarantee) },
	"guarantee_expiry_date":            func(m *Machine) Value { return textPtr(m.GuaranteeExpiryDate) },
	"has_warranty":                     func(m *Machine) Value { return flag(m.HasWarranty) },
	"warranty_expiry_date":             func(m *Machine) Value { return textPtr(m.WarrantyExpiryDate) },
	"current_type":                     func(m *Machine) Value { return text(m.CurrentType) },
	"phase_count":                      func(m *Machine) Value { return integer(m.PhaseCount) },
	"nominal_voltage":                  func(m *Machine) Value { return float(m.NominalVoltage) },
	"nominal_power":                    func(m *Machine) Value { return float(m.NominalPower) },
	"nominal_current":                  func(m *Machine) Value { return float(m.NominalCurrent) },
	"electrical_technical_description": func(m *Machine) Value { return text(m.ElectricalTechnicalDescription) },
	"maximum_consumption":              func(m *Machine) Value { return float(m.MaximumConsumption) },
	"operating_pressure":               func(m *Machine) Value { return float(m.OperatingPressure) },
	"supplier_company_name":            func(m *Machine) Value { return text(m.SupplierCompanyName) },
	"supplier_phone":                   func(m *Machine) Value { return text(m.SupplierPhone) },
	"supplier_address":                 func(m *Machine) Value { return text(m.SupplierAddress) },
	"manufacturer_company_name":        func(m *Machine) Value { return text(m.ManufacturerCompanyName) },
	"manufacturer_phone":               func(m *Machine) Value { return text(m.ManufacturerPhone) },
	"manufacturer_address":             func(m *Machine) Value { return text(m.ManufacturerAddress) },
	"created_at": func(m *Machine) Value {
		if m.CreatedAt == nil {
			return Value{Absent: true}
		}
		return text(m.CreatedAt.UTC().Format(time.RFC3339Nano))
	},
	"updated_at": func(m *Machine) Value {
		if m.UpdatedAt == nil {
			return Value{Absent: true}
		}
		return text(m.UpdatedAt.UTC().Format(time.RFC3339Nano))
	},
}

// FieldValue returns the raw value of the scalar field with the given wire
// name. ok is false for unknown names and for the lubricants list.
func (m Machine) FieldValue(name string) (v Value, ok bool) {
	get, ok := fieldValues[name]
	if !ok {
		return Value{Absent: true}, false
	}
	return get(&m), true
}

// Clone returns a deep copy of m.
func (m Machine) Clone() Machine {
	out := m
	if m.Lubricants != nil {
		out.Lubricants = append([]Lubricant(nil), m.Lubricants...)
	}
	out.ManufactureYear = clonePtr(m.ManufactureYear)
	out.CompanyEntryDate = clonePtr(m.CompanyEntryDate)
	out.InstallationDate = clonePtr(m.InstallationDate)
	out.LengthMM = clonePtr(m.LengthMM)
	out.WidthMM = clonePtr(m.WidthMM)
	out.HeightMM = clonePtr(m.HeightMM)
	out.WeightKG = clonePtr(m.WeightKG)
	out.GuaranteeExpiryDate = clonePtr(m.GuaranteeExpiryDate)
	out.WarrantyExpiryDate = clonePtr(m.WarrantyExpiryDate)
	out.PhaseCount = clonePtr(m.PhaseCount)
	out.NominalVoltage = clonePtr(m.NominalVoltage)
	out.NominalPower = clonePtr(m.NominalPower)
	out.NominalCurrent = clonePtr(m.NominalCurrent)
	out.MaximumConsumption = clonePtr(m.MaximumConsumption)
	out.OperatingPressure = clonePtr(m.OperatingPressure)
	out.CreatedAt = clonePtr(m.CreatedAt)
	out.UpdatedAt = clonePtr(m.UpdatedAt)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
