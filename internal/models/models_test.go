package models_test

import (
	"encoding/json"
	"testing"

	"github.com/tphummel/machine_registry/internal/models"
)

func TestValidCriticality_ContainsExpectedValues(t *testing.T) {
	expected := []string{"low", "medium", "high", "critical"}

	if len(models.ValidCriticality) != len(expected) {
		t.Errorf("ValidCriticality: got %d entries, want %d", len(models.ValidCriticality), len(expected))
	}

	for _, k := range expected {
		if !models.ValidCriticality[k] {
			t.Errorf("ValidCriticality: missing expected level %q", k)
		}
	}
}

func TestValidCriticality_IsCaseSensitive(t *testing.T) {
	for _, k := range []string{"Low", "HIGH", "Critical", "", "urgent"} {
		if models.ValidCriticality[k] {
			t.Errorf("ValidCriticality: should not contain %q", k)
		}
	}
}

func TestValidCurrentTypes(t *testing.T) {
	if !models.ValidCurrentTypes["AC"] || !models.ValidCurrentTypes["DC"] {
		t.Error("ValidCurrentTypes must contain AC and DC")
	}
	if models.ValidCurrentTypes["ac"] {
		t.Error("ValidCurrentTypes should be case-sensitive")
	}
}

func TestMachine_DecodeNulls(t *testing.T) {
	raw := `{
		"id": 7,
		"section": "Press",
		"machine_name": "Hydraulic Press",
		"manufacture_year": 2015,
		"installation_date": null,
		"length_mm": null,
		"weight_kg": 1250.5,
		"foundation_type": null,
		"has_guarantee": null,
		"lubricants": [{"row_number": 1, "lubricant_type": "ISO VG 46", "alternative_lubricant_type": null, "description": "main tank"}],
		"created_at": "2024-03-01T10:15:30.123456Z"
	}`

	var m models.Machine
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.ID != 7 || !m.Persisted() {
		t.Errorf("ID: got %d, want 7", m.ID)
	}
	if m.InstallationDate != nil {
		t.Errorf("InstallationDate: got %v, want nil", *m.InstallationDate)
	}
	if m.LengthMM != nil {
		t.Errorf("LengthMM: got %v, want nil", *m.LengthMM)
	}
	if m.WeightKG == nil || *m.WeightKG != 1250.5 {
		t.Errorf("WeightKG: got %v, want 1250.5", m.WeightKG)
	}
	if m.FoundationType != "" {
		t.Errorf("FoundationType: got %q, want empty", m.FoundationType)
	}
	if m.HasGuarantee {
		t.Error("HasGuarantee: null must decode as false")
	}
	if len(m.Lubricants) != 1 || m.Lubricants[0].AlternativeLubricantType != "" {
		t.Errorf("Lubricants: got %+v", m.Lubricants)
	}
	if m.CreatedAt == nil {
		t.Error("CreatedAt: expected parsed timestamp")
	}
}

func TestMachine_NewRecordOmitsID(t *testing.T) {
	b, err := json.Marshal(models.Machine{MachineName: "lathe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["id"]; ok {
		t.Error("unpersisted record must not carry an id")
	}
	if _, ok := fields["created_at"]; ok {
		t.Error("unpersisted record must not carry created_at")
	}
}

func TestMachine_GatedExpiry(t *testing.T) {
	date := "2030-01-01"
	tests := []struct {
		name   string
		gate   bool
		date   *string
		wantOK bool
	}{
		{"gate off with date", false, &date, false},
		{"gate on with date", true, &date, true},
		{"gate on without date", true, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := models.Machine{HasGuarantee: tt.gate, GuaranteeExpiryDate: tt.date, HasWarranty: tt.gate, WarrantyExpiryDate: tt.date}
			if _, ok := m.GuaranteeExpiry(); ok != tt.wantOK {
				t.Errorf("GuaranteeExpiry ok: got %v, want %v", ok, tt.wantOK)
			}
			if _, ok := m.WarrantyExpiry(); ok != tt.wantOK {
				t.Errorf("WarrantyExpiry ok: got %v, want %v", ok, tt.wantOK)
			}
		})
	}
	// The stored value survives while the gate is off.
	m := models.Machine{HasGuarantee: false, GuaranteeExpiryDate: &date}
	if m.GuaranteeExpiryDate == nil || *m.GuaranteeExpiryDate != date {
		t.Error("stored guarantee date must be retained when gate is off")
	}
}

func TestMachine_FieldValue(t *testing.T) {
	power := 7.5
	year := int64(2019)
	m := models.Machine{MachineName: "Mill", NominalPower: &power, ManufactureYear: &year}

	v, ok := m.FieldValue("machine_name")
	if !ok || v.Text != "Mill" || v.Absent {
		t.Errorf("machine_name: got %+v, ok=%v", v, ok)
	}
	v, _ = m.FieldValue("nominal_power")
	if !v.Numeric || v.Number != 7.5 {
		t.Errorf("nominal_power: got %+v", v)
	}
	v, _ = m.FieldValue("manufacture_year")
	if !v.Numeric || v.Number != 2019 || v.Text != "2019" {
		t.Errorf("manufacture_year: got %+v", v)
	}
	v, _ = m.FieldValue("section")
	if !v.Absent {
		t.Errorf("empty section should be absent, got %+v", v)
	}
	v, _ = m.FieldValue("length_mm")
	if !v.Absent {
		t.Errorf("nil length_mm should be absent, got %+v", v)
	}
	if _, ok := m.FieldValue("lubricants"); ok {
		t.Error("lubricants is not a scalar field")
	}
	if _, ok := m.FieldValue("nope"); ok {
		t.Error("unknown field should report ok=false")
	}
}

func TestMachine_CloneIsDeep(t *testing.T) {
	w := 10.0
	m := models.Machine{WidthMM: &w, Lubricants: []models.Lubricant{{LubricantType: "a"}}}
	c := m.Clone()
	*c.WidthMM = 20
	c.Lubricants[0].LubricantType = "b"
	if *m.WidthMM != 10 {
		t.Error("Clone shares WidthMM pointer")
	}
	if m.Lubricants[0].LubricantType != "a" {
		t.Error("Clone shares lubricant slice")
	}
}
