package handlers

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/tphummel/machine_registry/internal/console"
	"github.com/tphummel/machine_registry/internal/dashboard"
	"github.com/tphummel/machine_registry/internal/db"
	"github.com/tphummel/machine_registry/internal/models"
	"github.com/tphummel/machine_registry/internal/sheet"
)

// GetView handles GET /api/v1/view.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.View())
}

func (h *Handler) dispatchView(w http.ResponseWriter, r *http.Request, a console.Action) {
	if _, err := h.Session.Dispatch(a); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Session.View())
}

// SetQuery handles PUT /api/v1/view/query.
func (h *Handler) SetQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.dispatchView(w, r, console.SetQuery{Query: req.Query})
}

// SetModelFilter handles PUT /api/v1/view/filter. An empty model selects all.
func (h *Handler) SetModelFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.dispatchView(w, r, console.SetModelFilter{Model: req.Model})
}

// SortBy handles POST /api/v1/view/sort. Selecting the active column again
// flips its direction.
func (h *Handler) SortBy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.dispatchView(w, r, console.SortBy{Key: req.Key})
}

// ExportSheet handles GET /api/v1/view/export.xlsx with the rows currently
// displayed.
func (h *Handler) ExportSheet(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := sheet.Write(&buf, h.Session.View().Rows); err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": sheet.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Notices handles GET /api/v1/notices. Reading drains the queue.
func (h *Handler) Notices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.Notices())
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.Summarize(h.Session.State().Records))
}

type snapshotResponse struct {
	FetchedAt     time.Time        `json:"fetched_at"`
	Total         int              `json:"total"`
	ByCriticality map[string]int   `json:"by_criticality"`
	Records       []models.Machine `json:"records"`
}

// Snapshot handles GET /api/v1/snapshot, the collection as of the last
// successful load.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h.Snapshots == nil {
		writeError(w, http.StatusNotFound, db.ErrNoSnapshot.Error())
		return
	}
	records, at, err := h.Snapshots.Snapshot()
	if errors.Is(err, db.ErrNoSnapshot) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	counts, err := h.Snapshots.CountByCriticality()
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		FetchedAt:     at,
		Total:         len(records),
		ByCriticality: counts,
		Records:       records,
	})
}
