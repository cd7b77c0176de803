package form

// Kind is the input control type of a form field.
type Kind string

const (
	KindText     Kind = "text"
	KindTextArea Kind = "textarea"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindSelect   Kind = "select"
	KindCheckbox Kind = "checkbox"
)

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes one scalar control of the machine form.
type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Section  string   `json:"section"`
	Kind     Kind     `json:"kind"`
	Required bool     `json:"required"`
	Integer  bool     `json:"integer,omitempty"`
	Options  []Option `json:"options,omitempty"`
	// Gate names the checkbox that shows this field. Gated fields are
	// hidden, and not required, while the checkbox is off.
	Gate string `json:"gate,omitempty"`

	text func(*Draft) *string
	flag func(*Draft) *bool
}

// Form sections, in display order.
const (
	SectionGeneral      = "General Information"
	SectionDimensions   = "Dimensions & Weight"
	SectionTechnical    = "Technical & Automation"
	SectionElectrical   = "Electrical Specifications"
	SectionMechanical   = "Mechanical & Lubrication"
	SectionWarranty     = "Warranty & Guarantee"
	SectionSupplier     = "Supplier Information"
	SectionManufacturer = "Manufacturer Information"
)

var criticalityOptions = []Option{
	{Value: "low", Label: "Low"},
	{Value: "medium", Label: "Medium"},
	{Value: "high", Label: "High"},
	{Value: "critical", Label: "Critical"},
}

var foundationOptions = []Option{
	{Value: "", Label: "Select Foundation Type"},
	{Value: "فلزی", Label: "فلزی"},
	{Value: "بتنی/فلزی", Label: "بتنی"},
	{Value: "پیش ساخته", Label: "پیش ساخته"},
	{Value: "ندارد", Label: "ندارد"},
}

var automationOptions = []Option{
	{Value: "", Label: "Select Automation Level"},
	{Value: "دستی", Label: "دستی"},
	{Value: "نیمه اتوماتیک", Label: "نیمه اتوماتیک"},
	{Value: "اتوماتیک", Label: "اتوماتیک"},
}

var currentTypeOptions = []Option{
	{Value: "AC", Label: "AC"},
	{Value: "DC", Label: "DC"},
}

var phaseOptions = []Option{
	{Value: "", Label: "Select Phase Count"},
	{Value: "1", Label: "تک فاز"},
	{Value: "3", Label: "سه فاز"},
}

// Fields lists every scalar form control in display order.
var Fields = []Field{
	{Name: "section", Label: "Section", Section: SectionGeneral, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.Section }},
	{Name: "machine_name", Label: "Machine Name", Section: SectionGeneral, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.MachineName }},
	{Name: "machine_code", Label: "Machine Code", Section: SectionGeneral, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.MachineCode }},
	{Name: "machine_model", Label: "Machine Model", Section: SectionGeneral, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.MachineModel }},
	{Name: "machine_serial", Label: "Machine Serial", Section: SectionGeneral, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.MachineSerial }},
	{Name: "manufacture_year", Label: "Manufacture Year", Section: SectionGeneral, Kind: KindNumber, Required: true, Integer: true,
		text: func(d *Draft) *string { return &d.ManufactureYear }},
	{Name: "company_entry_date", Label: "Company Entry Date", Section: SectionGeneral, Kind: KindDate, Required: true,
		text: func(d *Draft) *string { return &d.CompanyEntryDate }},
	{Name: "installation_date", Label: "Installation Date", Section: SectionGeneral, Kind: KindDate,
		text: func(d *Draft) *string { return &d.InstallationDate }},
	{Name: "criticality_level", Label: "Criticality Level", Section: SectionGeneral, Kind: KindSelect, Required: true, Options: criticalityOptions,
		text: func(d *Draft) *string { return &d.CriticalityLevel }},
	{Name: "location_name", Label: "Location Name", Section: SectionGeneral, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.LocationName }},
	{Name: "location_code", Label: "Location Code", Section: SectionGeneral, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.LocationCode }},

	{Name: "length_mm", Label: "Length (mm)", Section: SectionDimensions, Kind: KindNumber,
		text: func(d *Draft) *string { return &d.LengthMM }},
	{Name: "width_mm", Label: "Width (mm)", Section: SectionDimensions, Kind: KindNumber,
		text: func(d *Draft) *string { return &d.WidthMM }},
	{Name: "height_mm", Label: "Height (mm)", Section: SectionDimensions, Kind: KindNumber,
		text: func(d *Draft) *string { return &d.HeightMM }},
	{Name: "weight_kg", Label: "Weight (kg)", Section: SectionDimensions, Kind: KindNumber,
		text: func(d *Draft) *string { return &d.WeightKG }},

	{Name: "foundation_type", Label: "Foundation Type", Section: SectionTechnical, Kind: KindSelect, Options: foundationOptions,
		text: func(d *Draft) *string { return &d.FoundationType }},
	{Name: "automation_level", Label: "Automation Level", Section: SectionTechnical, Kind: KindSelect, Options: automationOptions,
		text: func(d *Draft) *string { return &d.AutomationLevel }},

	{Name: "current_type", Label: "Current Type", Section: SectionElectrical, Kind: KindSelect, Options: currentTypeOptions,
		text: func(d *Draft) *string { return &d.CurrentType }},
	{Name: "phase_count", Label: "Phase Count", Section: SectionElectrical, Kind: KindSelect, Integer: true, Options: phaseOptions,
		text: func(d *Draft) *string { return &d.PhaseCount }},
	{Name: "nominal_voltage", Label: "Nominal Voltage (V)", Section: SectionElectrical, Kind: KindNumber, Required: true,
		text: func(d *Draft) *string { return &d.NominalVoltage }},
	{Name: "nominal_power", Label: "Nominal Power (kW)", Section: SectionElectrical, Kind: KindNumber, Required: true,
		text: func(d *Draft) *string { return &d.NominalPower }},
	{Name: "nominal_current", Label: "Nominal Current (A)", Section: SectionElectrical, Kind: KindNumber, Required: true,
		text: func(d *Draft) *string { return &d.NominalCurrent }},
	{Name: "maximum_consumption", Label: "Max Consumption", Section: SectionElectrical, Kind: KindNumber,
		text: func(d *Draft) *string { return &d.MaximumConsumption }},
	{Name: "electrical_technical_description", Label: "Electrical Description", Section: SectionElectrical, Kind: KindTextArea,
		text: func(d *Draft) *string { return &d.ElectricalTechnicalDescription }},

	{Name: "operating_pressure", Label: "Operating Pressure (bar)", Section: SectionMechanical, Kind: KindNumber,
		text: func(d *Draft) *string { return &d.OperatingPressure }},

	{Name: "has_guarantee", Label: "Has Guarantee", Section: SectionWarranty, Kind: KindCheckbox,
		flag: func(d *Draft) *bool { return &d.HasGuarantee }},
	{Name: "guarantee_expiry_date", Label: "Guarantee Expiry Date", Section: SectionWarranty, Kind: KindDate, Required: true, Gate: "has_guarantee",
		text: func(d *Draft) *string { return &d.GuaranteeExpiryDate }},
	{Name: "has_warranty", Label: "Has Warranty", Section: SectionWarranty, Kind: KindCheckbox,
		flag: func(d *Draft) *bool { return &d.HasWarranty }},
	{Name: "warranty_expiry_date", Label: "Warranty Expiry Date", Section: SectionWarranty, Kind: KindDate, Required: true, Gate: "has_warranty",
		text: func(d *Draft) *string { return &d.WarrantyExpiryDate }},

	{Name: "supplier_company_name", Label: "Supplier Name", Section: SectionSupplier, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.SupplierCompanyName }},
	{Name: "supplier_phone", Label: "Supplier Phone", Section: SectionSupplier, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.SupplierPhone }},
	{Name: "supplier_address", Label: "Supplier Address", Section: SectionSupplier, Kind: KindTextArea, Required: true,
		text: func(d *Draft) *string { return &d.SupplierAddress }},

	{Name: "manufacturer_company_name", Label: "Manufacturer Name", Section: SectionManufacturer, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.ManufacturerCompanyName }},
	{Name: "manufacturer_phone", Label: "Manufacturer Phone", Section: SectionManufacturer, Kind: KindText, Required: true,
		text: func(d *Draft) *string { return &d.ManufacturerPhone }},
	{Name: "manufacturer_address", Label: "Manufacturer Address", Section: SectionManufacturer, Kind: KindTextArea, Required: true,
		text: func(d *Draft) *string { return &d.ManufacturerAddress }},
}

var fieldIndex = func() map[string]*Field {
	idx := make(map[string]*Field, len(Fields))
	for i := range Fields {
		idx[Fields[i].Name] = &Fields[i]
	}
	return idx
}()

// Lookup returns the field with the given wire name.
func Lookup(name string) (Field, bool) {
	f, ok := fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return *f, true
}

func (f Field) allows(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}
