package handlers

import (
	"net/http"
	"strconv"

	"github.com/tphummel/machine_registry/internal/console"
	"github.com/tphummel/machine_registry/internal/form"
)

// formView is the rendered machine form.
type formView struct {
	Open    bool         `json:"open"`
	Mode    string       `json:"mode"`
	EditID  int64        `json:"edit_id,omitempty"`
	Draft   form.Draft   `json:"draft"`
	Fields  []form.Field `json:"fields"`
	Missing []string     `json:"missing"`
}

func renderForm(st console.State) formView {
	missing := st.Draft.Missing()
	if missing == nil {
		missing = []string{}
	}
	return formView{
		Open:    st.FormOpen,
		Mode:    st.Mode(),
		EditID:  st.EditID,
		Draft:   st.Draft,
		Fields:  st.Draft.VisibleFields(),
		Missing: missing,
	}
}

func (h *Handler) dispatchForm(w http.ResponseWriter, r *http.Request, a console.Action) {
	st, err := h.Session.Dispatch(a)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, renderForm(st))
}

// GetForm handles GET /api/v1/form.
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, renderForm(h.Session.State()))
}

// OpenNew handles POST /api/v1/form/new.
func (h *Handler) OpenNew(w http.ResponseWriter, r *http.Request) {
	h.dispatchForm(w, r, console.OpenNew{})
}

// OpenEdit handles POST /api/v1/form/edit/{id}.
func (h *Handler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, err := h.Session.Edit(id)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, renderForm(st))
}

// CloseForm handles POST /api/v1/form/close. The draft is kept.
func (h *Handler) CloseForm(w http.ResponseWriter, r *http.Request) {
	h.dispatchForm(w, r, console.CloseForm{})
}

// SetField handles PUT /api/v1/form/fields/{name} with {"value": "..."} for
// inputs or {"checked": true} for checkboxes.
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value   *string `json:"value"`
		Checked *bool   `json:"checked"`
	}
	if !decode(w, r, &req) {
		return
	}
	name := r.PathValue("name")
	switch {
	case req.Checked != nil:
		h.dispatchForm(w, r, console.SetChecked{Name: name, Checked: *req.Checked})
	case req.Value != nil:
		h.dispatchForm(w, r, console.SetField{Name: name, Value: *req.Value})
	default:
		writeError(w, http.StatusBadRequest, "value or checked is required")
	}
}

// AddLubricant handles POST /api/v1/form/lubricants.
func (h *Handler) AddLubricant(w http.ResponseWriter, r *http.Request) {
	h.dispatchForm(w, r, console.AddLubricant{})
}

func lubricantIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lubricant index")
		return 0, false
	}
	return i, true
}

// SetLubricantField handles PUT /api/v1/form/lubricants/{index}/{field}.
func (h *Handler) SetLubricantField(w http.ResponseWriter, r *http.Request) {
	i, ok := lubricantIndex(w, r)
	if !ok {
		return
	}
	var req struct {
		Value string `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.dispatchForm(w, r, console.SetLubricantField{Index: i, Field: r.PathValue("field"), Value: req.Value})
}

// RemoveLubricant handles DELETE /api/v1/form/lubricants/{index}.
func (h *Handler) RemoveLubricant(w http.ResponseWriter, r *http.Request) {
	i, ok := lubricantIndex(w, r)
	if !ok {
		return
	}
	h.dispatchForm(w, r, console.RemoveLubricant{Index: i})
}

// Submit handles POST /api/v1/form/submit. Responds 201 for a new record and
// 200 for an update; the form stays open on failure.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	status := http.StatusCreated
	if h.Session.State().Editing {
		status = http.StatusOK
	}
	saved, err := h.Session.Submit(r.Context())
	if err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, status, saved)
}
