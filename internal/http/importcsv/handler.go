package importcsv

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/http/respond"
	"github.com/MrJamesThe3rd/reconciler/internal/importer"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
	batchSvc  *reconciliation.Service
}

func NewHandler(importSvc *importer.Service, batchSvc *reconciliation.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		batchSvc:  batchSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importStatement)
}

type importResponse struct {
	ID        uuid.UUID             `json:"id"`
	Number    string                `json:"number"`
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	Status    reconciliation.Status `json:"status"`
	Imported  int                   `json:"imported"`
}

func (h *Handler) importStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	bank := importer.Bank(r.FormValue("bank"))
	if bank == "" {
		http.Error(w, "bank field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	txs, err := h.importSvc.Import(bank, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.batchSvc.Import(r.Context(), txs)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, importResponse{
		ID:        b.ID,
		Number:    b.Number,
		StartDate: b.Start.Format(time.DateOnly),
		EndDate:   b.End.Format(time.DateOnly),
		Status:    b.Status,
		Imported:  b.LineCount,
	})
}
