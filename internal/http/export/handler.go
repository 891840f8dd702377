package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/export"
	"github.com/MrJamesThe3rd/reconciler/internal/http/respond"
)

// formatBundle zips every export format together with the text summary.
const formatBundle = "zip"

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{id}/export", h.download)
	r.Get("/{id}/summary", h.summary)
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	text, err := h.svc.Summary(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, summaryResponse{Summary: text})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), formatBundle) {
		h.bundle(w, r, id)
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var buf bytes.Buffer

	name, err := h.svc.Export(r.Context(), id, format, &buf)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

func (h *Handler) bundle(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var (
		buf  bytes.Buffer
		base string
	)

	zw := zip.NewWriter(&buf)

	for _, format := range []export.Format{export.FormatCSV, export.FormatXLSX} {
		var part bytes.Buffer

		name, err := h.svc.Export(r.Context(), id, format, &part)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		base = strings.TrimSuffix(name, "."+string(format))

		if err := writeEntry(zw, name, part.Bytes()); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	text, err := h.svc.Summary(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := writeEntry(zw, "summary.txt", []byte(text)); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := zw.Close(); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".zip"))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export bundle", "error", err)
	}
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}
