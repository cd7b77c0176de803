package db_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tphummel/machine_registry/internal/db"
	"github.com/tphummel/machine_registry/internal/models"
)

// newTestDB opens a fresh in-memory SQLite database for each test.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func ptr[T any](v T) *T { return &v }

func sampleRecords() []models.Machine {
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return []models.Machine{
		{
			ID: 11, MachineName: "Lathe", MachineCode: "LT-11", CriticalityLevel: "critical",
			ManufactureYear: ptr(int64(2015)), WeightKG: ptr(1250.5),
			HasWarranty: true, WarrantyExpiryDate: ptr("2030-01-01"),
			Lubricants: []models.Lubricant{{RowNumber: 1, LubricantType: "ISO VG 68"}},
			CreatedAt:  &created,
		},
		{ID: 4, MachineName: "Press", MachineCode: "PR-4", CriticalityLevel: "low"},
		{ID: 7, MachineName: "Drill", MachineCode: "DR-7", CriticalityLevel: "critical"},
	}
}

func TestNew(t *testing.T) {
	d := newTestDB(t)
	if err := d.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSnapshot_NoneYet(t *testing.T) {
	d := newTestDB(t)
	_, _, err := d.Snapshot()
	if !errors.Is(err, db.ErrNoSnapshot) {
		t.Fatalf("Snapshot before replace: got %v, want ErrNoSnapshot", err)
	}
}

func TestReplaceSnapshot_RoundTrip(t *testing.T) {
	d := newTestDB(t)
	at := time.Date(2026, 5, 6, 7, 8, 9, 123, time.UTC)
	want := sampleRecords()

	if err := d.ReplaceSnapshot(want, at); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}
	got, fetchedAt, err := d.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !fetchedAt.Equal(at) {
		t.Errorf("fetched_at: got %v, want %v", fetchedAt, at)
	}
	if len(got) != len(want) {
		t.Fatalf("records: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("position %d: got id %d, want %d (load order must be kept)", i, got[i].ID, want[i].ID)
		}
	}
	first := got[0]
	if first.ManufactureYear == nil || *first.ManufactureYear != 2015 {
		t.Errorf("manufacture_year: got %v", first.ManufactureYear)
	}
	if first.WeightKG == nil || *first.WeightKG != 1250.5 {
		t.Errorf("weight_kg: got %v", first.WeightKG)
	}
	if len(first.Lubricants) != 1 || first.Lubricants[0].LubricantType != "ISO VG 68" {
		t.Errorf("lubricants: got %+v", first.Lubricants)
	}
	if first.CreatedAt == nil || !first.CreatedAt.Equal(*want[0].CreatedAt) {
		t.Errorf("created_at: got %v", first.CreatedAt)
	}
	if got[1].ManufactureYear != nil {
		t.Errorf("null manufacture_year should stay null, got %v", *got[1].ManufactureYear)
	}
}

func TestReplaceSnapshot_ReplacesWholeTable(t *testing.T) {
	d := newTestDB(t)
	if err := d.ReplaceSnapshot(sampleRecords(), time.Now()); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := d.ReplaceSnapshot([]models.Machine{{ID: 99, MachineCode: "NEW"}}, later); err != nil {
		t.Fatal(err)
	}
	got, _, err := d.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 99 {
		t.Errorf("after second replace: got %+v, want only id 99", got)
	}
}

func TestReplaceSnapshot_Empty(t *testing.T) {
	d := newTestDB(t)
	if err := d.ReplaceSnapshot(sampleRecords(), time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := d.ReplaceSnapshot(nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	got, _, err := d.Snapshot()
	if err != nil {
		t.Fatalf("empty snapshot should still be recorded: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("records: got %d, want 0", len(got))
	}
}

func TestCountByCriticality(t *testing.T) {
	d := newTestDB(t)
	if err := d.ReplaceSnapshot(sampleRecords(), time.Now()); err != nil {
		t.Fatal(err)
	}
	counts, err := d.CountByCriticality()
	if err != nil {
		t.Fatal(err)
	}
	if counts["critical"] != 2 || counts["low"] != 1 || len(counts) != 2 {
		t.Errorf("counts: got %v", counts)
	}
}

func TestNew_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	d, err := db.New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.ReplaceSnapshot(sampleRecords()[:1], time.Now()); err != nil {
		t.Fatal(err)
	}
	d.Close()

	reopened, err := db.New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, _, err := reopened.Snapshot()
	if err != nil || len(got) != 1 {
		t.Fatalf("reopened snapshot: got %d records, err %v", len(got), err)
	}
}
