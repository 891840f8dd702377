package batch

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/http/respond"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

type Handler struct {
	svc *reconciliation.Service
}

func NewHandler(svc *reconciliation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/flush", h.flush)
	r.Post("/{id}/validate", h.validate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	batches, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(batches))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	sess, err := h.svc.Open(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	lines := sess.Lines()
	resp := batchDetailResponse{
		batchResponse: toResponse(sess.Batch()),
		Lines:         make([]lineResponse, len(lines)),
	}

	for i, l := range lines {
		resp.Lines[i] = toLineResponse(l)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) flush(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	sess, err := h.svc.Open(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := sess.Flush(r.Context()); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	sess, err := h.svc.Open(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := sess.Validate(r.Context()); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(sess.Batch()))
}
