package form

import (
	"fmt"

	"github.com/tphummel/machine_registry/internal/models"
)

// Lubricant row field names.
const (
	LubricantType            = "lubricant_type"
	AlternativeLubricantType = "alternative_lubricant_type"
	LubricantDescription     = "description"
)

// AddLubricant appends a blank lubricant row.
func (d Draft) AddLubricant() Draft {
	out := d.clone()
	out.Lubricants = append(out.Lubricants, models.Lubricant{})
	return out
}

// RemoveLubricant drops the row at index i.
func (d Draft) RemoveLubricant(i int) (Draft, error) {
	if i < 0 || i >= len(d.Lubricants) {
		return d, fmt.Errorf("%w: %d", ErrLubricantIndex, i)
	}
	out := d
	out.Lubricants = make([]models.Lubricant, 0, len(d.Lubricants)-1)
	out.Lubricants = append(out.Lubricants, d.Lubricants[:i]...)
	out.Lubricants = append(out.Lubricants, d.Lubricants[i+1:]...)
	return out, nil
}

// SetLubricant updates one field of the row at index i.
func (d Draft) SetLubricant(i int, field, value string) (Draft, error) {
	if i < 0 || i >= len(d.Lubricants) {
		return d, fmt.Errorf("%w: %d", ErrLubricantIndex, i)
	}
	out := d.clone()
	row := &out.Lubricants[i]
	switch field {
	case LubricantType:
		row.LubricantType = value
	case AlternativeLubricantType:
		row.AlternativeLubricantType = value
	case LubricantDescription:
		row.Description = value
	default:
		return d, fmt.Errorf("%w: lubricant %q", ErrUnknownField, field)
	}
	return out, nil
}
