package matching

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/http/respond"
	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

type Handler struct {
	svc *reconciliation.Service
}

func NewHandler(svc *reconciliation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/{id}/match/{strategy}", h.run)
	r.Patch("/{id}/lines/{line}", h.override)
	r.Post("/{id}/lines/{line}/confirm", h.confirm)
	r.Post("/{id}/lines/{line}/reset", h.reset)
}

type mutationResponse struct {
	LineNumber          string          `json:"line_number"`
	Status              matching.Status `json:"status"`
	InvoiceIDs          []uuid.UUID     `json:"invoice_ids,omitempty"`
	SuggestedInvoiceIDs []uuid.UUID     `json:"suggested_invoice_ids,omitempty"`
	SubscriptionID      *uuid.UUID      `json:"subscription_id,omitempty"`
	DeclarationID       *uuid.UUID      `json:"declaration_id,omitempty"`
	PartnerName         string          `json:"partner_name,omitempty"`
	Score               int             `json:"score"`
	Notes               string          `json:"notes,omitempty"`
}

type diffResponse struct {
	Changed int                `json:"changed"`
	Lines   []mutationResponse `json:"lines"`
}

func toDiffResponse(sess *reconciliation.Session, diff matching.Diff) diffResponse {
	resp := diffResponse{
		Changed: len(diff),
		Lines:   make([]mutationResponse, 0, len(diff)),
	}

	for _, m := range diff {
		mr := mutationResponse{
			LineNumber:          m.LineNumber,
			Status:              matching.Derive(m.Link),
			InvoiceIDs:          m.Link.InvoiceIDs,
			SuggestedInvoiceIDs: m.Link.SuggestedInvoiceIDs,
			SubscriptionID:      m.Link.SubscriptionID,
			DeclarationID:       m.Link.DeclarationID,
			Score:               m.Link.Score,
			Notes:               m.Link.Notes,
		}

		if l, ok := sess.Line(m.LineNumber); ok {
			mr.Status = l.Status
		}

		if m.Link.Partner != nil {
			mr.PartnerName = m.Link.Partner.Name
		}

		resp.Lines = append(resp.Lines, mr)
	}

	return resp
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*reconciliation.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}

	sess, err := h.svc.Open(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}

	return sess, true
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	strategy, err := matching.ParseStrategy(chi.URLParam(r, "strategy"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	diff, err := sess.Run(strategy)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDiffResponse(sess, diff))
}

// overrideRequest distinguishes an absent invoice_ids from an empty one:
// the latter unlinks every invoice.
type overrideRequest struct {
	InvoiceIDs     *[]uuid.UUID `json:"invoice_ids,omitempty"`
	SubscriptionID *uuid.UUID   `json:"subscription_id,omitempty"`
	DeclarationID  *uuid.UUID   `json:"declaration_id,omitempty"`
	PartnerID      *uuid.UUID   `json:"partner_id,omitempty"`
	Notes          *string      `json:"notes,omitempty"`
}

func (h *Handler) override(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	o := matching.Override{
		LineNumber:     chi.URLParam(r, "line"),
		SubscriptionID: req.SubscriptionID,
		DeclarationID:  req.DeclarationID,
		Notes:          req.Notes,
	}

	if req.InvoiceIDs != nil {
		o.InvoiceIDs = *req.InvoiceIDs
		if o.InvoiceIDs == nil {
			o.InvoiceIDs = []uuid.UUID{}
		}
	}

	if req.PartnerID != nil {
		o.Partner = &matching.PartnerRef{ID: *req.PartnerID}
	}

	diff, err := sess.Override(o)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDiffResponse(sess, diff))
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	diff, err := sess.Confirm(chi.URLParam(r, "line"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDiffResponse(sess, diff))
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.Reset(r.Context(), chi.URLParam(r, "line")); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
