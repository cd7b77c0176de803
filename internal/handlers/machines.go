package handlers

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/tphummel/machine_registry/internal/apiclient"
	"github.com/tphummel/machine_registry/internal/mutation"
)

// Reload handles POST /api/v1/machines/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Session.Reload(r.Context()); err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.View())
}

// DeleteMachine handles DELETE /api/v1/machines/{id}. The caller confirms
// with ?confirm=true.
func (h *Handler) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	confirm := mutation.Declined
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); ok {
		confirm = mutation.Approved
	}
	if err := h.Session.Delete(r.Context(), id, confirm); err != nil {
		h.fail(w, r, err, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// responseDownload streams an exported document as the HTTP response.
type responseDownload struct {
	w    http.ResponseWriter
	sent bool
}

func (d *responseDownload) Download(_ context.Context, name string, doc apiclient.Document) error {
	ct := doc.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	d.w.Header().Set("Content-Type", ct)
	d.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	d.w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	d.w.WriteHeader(http.StatusOK)
	d.sent = true
	_, err := d.w.Write(doc.Data)
	return err
}

// ExportMachine handles GET /api/v1/machines/{id}/export/{kind}.
func (h *Handler) ExportMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dl := &responseDownload{w: w}
	ctx := mutation.WithDownloader(r.Context(), dl)
	if _, err := h.Session.Export(ctx, id, r.PathValue("kind")); err != nil {
		if dl.sent {
			h.logger().Warn("export response interrupted", "id", id, "error", err)
			return
		}
		h.fail(w, r, err, http.StatusBadGateway)
	}
}
