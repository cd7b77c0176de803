// Package view derives the displayed machine list from the loaded collection.
// Everything here is a pure function of its arguments.
package view

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tphummel/machine_registry/internal/models"
)

// AllModels is the model filter value that disables model filtering.
const AllModels = "All"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortConfig selects the sort column. An empty Key keeps collection order.
type SortConfig struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// SortableColumns are the list headers that can be clicked to sort.
var SortableColumns = []string{
	"machine_name",
	"section",
	"machine_model",
	"manufacturer_company_name",
	"location_name",
	"criticality_level",
}

// ToggleSort returns the config after the header for key is selected: the
// active column flips between ascending and descending, any other column
// starts ascending.
func ToggleSort(cfg SortConfig, key string) SortConfig {
	dir := Asc
	if cfg.Key == key && cfg.Direction == Asc {
		dir = Desc
	}
	return SortConfig{Key: key, Direction: dir}
}

// Derive filters and sorts records. The input slice is not modified.
func Derive(records []models.Machine, query, modelFilter string, cfg SortConfig) []models.Machine {
	out := Filter(records, query, modelFilter)
	Sort(out, cfg)
	return out
}

// Filter keeps the records matching both the model filter and the query.
func Filter(records []models.Machine, query, modelFilter string) []models.Machine {
	lower := cases.Lower(language.Und)
	q := lower.String(query)

	out := make([]models.Machine, 0, len(records))
	for _, r := range records {
		if modelFilter != AllModels && r.MachineModel != modelFilter {
			continue
		}
		if !matches(lower, r, q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Matches reports whether r matches query on machine name or location.
func Matches(r models.Machine, query string) bool {
	lower := cases.Lower(language.Und)
	return matches(lower, r, lower.String(query))
}

func matches(lower cases.Caser, r models.Machine, q string) bool {
	if q == "" {
		return true
	}
	for _, field := range []string{r.MachineName, r.LocationName} {
		if field == "" {
			continue
		}
		if strings.Contains(lower.String(field), q) {
			return true
		}
	}
	return false
}

// Sort orders records in place by cfg. The sort is stable so equal keys keep
// their relative order, in both directions.
func Sort(records []models.Machine, cfg SortConfig) {
	if cfg.Key == "" {
		return
	}
	slices.SortStableFunc(records, func(a, b models.Machine) int {
		c := Compare(a, b, cfg.Key)
		if cfg.Direction == Desc {
			return -c
		}
		return c
	})
}

// Compare orders two records by the raw value of the named field. Absent
// values compare as the empty string; two numeric values compare numerically.
func Compare(a, b models.Machine, key string) int {
	av, _ := a.FieldValue(key)
	bv, _ := b.FieldValue(key)
	if av.Numeric && bv.Numeric && !av.Absent && !bv.Absent {
		switch {
		case av.Number < bv.Number:
			return -1
		case av.Number > bv.Number:
			return 1
		}
		return 0
	}
	return strings.Compare(av.Text, bv.Text)
}

// ModelOptions returns the model filter choices: AllModels followed by each
// distinct non-empty machine_model in first-seen order.
func ModelOptions(records []models.Machine) []string {
	out := []string{AllModels}
	seen := make(map[string]bool)
	for _, r := range records {
		if r.MachineModel == "" || seen[r.MachineModel] {
			continue
		}
		seen[r.MachineModel] = true
		out = append(out, r.MachineModel)
	}
	return out
}
