// Package console models the machine list screen as explicit state
// transitions. Reduce is pure; Session runs the effectful flows around it.
package console

import (
	"errors"
	"fmt"

	"github.com/tphummel/machine_registry/internal/form"
	"github.com/tphummel/machine_registry/internal/models"
	"github.com/tphummel/machine_registry/internal/view"
)

var (
	// ErrFormClosed is returned for form actions while no form is open.
	ErrFormClosed = errors.New("form is not open")
	// ErrRecordNotFound is returned when an id is not in the loaded collection.
	ErrRecordNotFound = errors.New("machine not found")
)

// State is everything the list screen shows.
type State struct {
	Records []models.Machine `json:"-"`
	Loading bool             `json:"loading"`

	Query       string          `json:"query"`
	ModelFilter string          `json:"model_filter"`
	Sort        view.SortConfig `json:"sort"`

	// FormOpen is the single editing surface; Editing selects update over
	// create and EditID names the record being updated.
	FormOpen bool       `json:"form_open"`
	Editing  bool       `json:"editing"`
	EditID   int64      `json:"edit_id,omitempty"`
	Draft    form.Draft `json:"draft"`
}

// Initial returns the state of a freshly mounted screen.
func Initial() State {
	return State{
		Records:     []models.Machine{},
		ModelFilter: view.AllModels,
		Draft:       form.Default(),
	}
}

// Rows returns the displayed records, derived from scratch.
func (s State) Rows() []models.Machine {
	return view.Derive(s.Records, s.Query, s.ModelFilter, s.Sort)
}

// ModelOptions returns the model filter choices.
func (s State) ModelOptions() []string {
	return view.ModelOptions(s.Records)
}

// Mode returns the submit mode for the open form.
func (s State) Mode() string {
	if s.Editing {
		return "edit"
	}
	return "create"
}

// Find returns the loaded record with the given id.
func (s State) Find(id int64) (models.Machine, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return models.Machine{}, false
}

// Action is a state transition.
type Action interface {
	apply(State) (State, error)
}

// Reduce applies a and returns the next state. Rejected actions return s
// unchanged.
func Reduce(s State, a Action) State {
	next, _ := Apply(s, a)
	return next
}

// Apply is Reduce that also reports why an action was rejected.
func Apply(s State, a Action) (State, error) {
	next, err := a.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

type SetQuery struct{ Query string }

func (a SetQuery) apply(s State) (State, error) {
	s.Query = a.Query
	return s, nil
}

type SetModelFilter struct{ Model string }

func (a SetModelFilter) apply(s State) (State, error) {
	if a.Model == "" {
		a.Model = view.AllModels
	}
	s.ModelFilter = a.Model
	return s, nil
}

// SortBy selects a column header; the same header again flips direction.
type SortBy struct{ Key string }

func (a SortBy) apply(s State) (State, error) {
	if a.Key == "" {
		return s, fmt.Errorf("sort key cannot be empty")
	}
	s.Sort = view.ToggleSort(s.Sort, a.Key)
	return s, nil
}

// OpenNew opens an empty create form.
type OpenNew struct{}

func (OpenNew) apply(s State) (State, error) {
	s.Draft = form.Default()
	s.Editing = false
	s.EditID = 0
	s.FormOpen = true
	return s, nil
}

// OpenEdit opens the form prefilled from Record.
type OpenEdit struct{ Record models.Machine }

func (a OpenEdit) apply(s State) (State, error) {
	s.Draft = form.FromMachine(a.Record)
	s.Editing = true
	s.EditID = a.Record.ID
	s.FormOpen = true
	return s, nil
}

// CloseForm hides the form. The draft is kept until the next open.
type CloseForm struct{}

func (CloseForm) apply(s State) (State, error) {
	s.FormOpen = false
	return s, nil
}

type SetField struct{ Name, Value string }

func (a SetField) apply(s State) (State, error) {
	return editDraft(s, func(d form.Draft) (form.Draft, error) { return d.Set(a.Name, a.Value) })
}

type SetChecked struct {
	Name    string
	Checked bool
}

func (a SetChecked) apply(s State) (State, error) {
	return editDraft(s, func(d form.Draft) (form.Draft, error) { return d.SetChecked(a.Name, a.Checked) })
}

type AddLubricant struct{}

func (AddLubricant) apply(s State) (State, error) {
	return editDraft(s, func(d form.Draft) (form.Draft, error) { return d.AddLubricant(), nil })
}

type RemoveLubricant struct{ Index int }

func (a RemoveLubricant) apply(s State) (State, error) {
	return editDraft(s, func(d form.Draft) (form.Draft, error) { return d.RemoveLubricant(a.Index) })
}

type SetLubricantField struct {
	Index int
	Field string
	Value string
}

func (a SetLubricantField) apply(s State) (State, error) {
	return editDraft(s, func(d form.Draft) (form.Draft, error) { return d.SetLubricant(a.Index, a.Field, a.Value) })
}

type LoadStarted struct{}

func (LoadStarted) apply(s State) (State, error) {
	s.Loading = true
	return s, nil
}

// Loaded replaces the collection with the result of a load.
type Loaded struct{ Records []models.Machine }

func (a Loaded) apply(s State) (State, error) {
	s.Records = a.Records
	if s.Records == nil {
		s.Records = []models.Machine{}
	}
	s.Loading = false
	return s, nil
}

// SubmitSucceeded closes the form and resets the draft.
type SubmitSucceeded struct{}

func (SubmitSucceeded) apply(s State) (State, error) {
	s.FormOpen = false
	s.Editing = false
	s.EditID = 0
	s.Draft = form.Default()
	return s, nil
}

func editDraft(s State, edit func(form.Draft) (form.Draft, error)) (State, error) {
	if !s.FormOpen {
		return s, ErrFormClosed
	}
	d, err := edit(s.Draft)
	if err != nil {
		return s, err
	}
	s.Draft = d
	return s, nil
}
