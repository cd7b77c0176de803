// Package dashboard aggregates the loaded machine collection into the
// figures shown on the overview page.
package dashboard

import (
	"slices"
	"time"

	"github.com/tphummel/machine_registry/internal/models"
)

const (
	// Unknown labels records without a section or model.
	Unknown = "Unknown"

	topSections   = 10
	recentMachine = 5
)

// Count is a labelled tally.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the dashboard payload.
type Summary struct {
	Total       int              `json:"total"`
	Critical    int              `json:"critical"`
	High        int              `json:"high"`
	Sections    int              `json:"sections"`
	PerSection  []Count          `json:"per_section"`
	PerModel    []Count          `json:"per_model"`
	Criticality []Count          `json:"criticality"`
	Recent      []models.Machine `json:"recent"`
}

var criticalityLabels = []struct {
	level string
	label string
}{
	{models.CriticalityCritical, "Critical"},
	{models.CriticalityHigh, "High"},
	{models.CriticalityMedium, "Medium"},
	{models.CriticalityLow, "Low"},
}

// Summarize computes the dashboard figures. Per-section counts are limited
// to the ten largest sections; ties keep first-seen order.
func Summarize(records []models.Machine) Summary {
	s := Summary{Total: len(records)}

	levels := make(map[string]int)
	sections := make(map[string]struct{})
	for _, r := range records {
		levels[r.CriticalityLevel]++
		sections[r.Section] = struct{}{}
	}
	s.Critical = levels[models.CriticalityCritical]
	s.High = levels[models.CriticalityHigh]
	s.Sections = len(sections)

	s.PerSection = tally(records, func(m models.Machine) string { return m.Section })
	if len(s.PerSection) > topSections {
		s.PerSection = s.PerSection[:topSections]
	}
	s.PerModel = tally(records, func(m models.Machine) string { return m.MachineModel })

	s.Criticality = []Count{}
	for _, c := range criticalityLabels {
		if n := levels[c.level]; n > 0 {
			s.Criticality = append(s.Criticality, Count{Name: c.label, Count: n})
		}
	}

	s.Recent = recent(records, recentMachine)
	return s
}

func tally(records []models.Machine, key func(models.Machine) string) []Count {
	index := make(map[string]int)
	out := []Count{}
	for _, r := range records {
		name := key(r)
		if name == "" {
			name = Unknown
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Count{Name: name})
		}
		out[i].Count++
	}
	slices.SortStableFunc(out, func(a, b Count) int { return b.Count - a.Count })
	return out
}

// recent returns the n most recently created records. Records without a
// creation time sort last.
func recent(records []models.Machine, n int) []models.Machine {
	out := make([]models.Machine, len(records))
	copy(out, records)
	slices.SortStableFunc(out, func(a, b models.Machine) int {
		return compareTime(b.CreatedAt, a.CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
