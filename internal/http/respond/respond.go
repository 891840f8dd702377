// Package respond writes JSON bodies and maps domain errors onto HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/reconciler/internal/export"
	"github.com/MrJamesThe3rd/reconciler/internal/importer"
	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

type errorResponse struct {
	Error       string   `json:"error"`
	BatchNumber string   `json:"batch_number,omitempty"`
	Step        string   `json:"step,omitempty"`
	LineNumber  string   `json:"line_number,omitempty"`
	FailedLines []string `json:"failed_lines,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status its kind maps to. Unknown errors are
// logged and reported as a bare 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	JSON(w, status, body)
}

func classify(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error()}

	var (
		reconciled *reconciliation.AlreadyReconciledError
		cascade    *reconciliation.CascadeError
		saveErrs   reconciliation.SaveErrors
	)

	switch {
	case errors.As(err, &reconciled):
		body.BatchNumber = reconciled.Number
		return http.StatusConflict, body

	case errors.Is(err, reconciliation.ErrNotFound),
		errors.Is(err, matching.ErrLineNotFound):
		return http.StatusNotFound, body

	case errors.Is(err, reconciliation.ErrBatchValidated),
		errors.Is(err, reconciliation.ErrDuplicateImport),
		errors.Is(err, reconciliation.ErrInvoiceReconciled),
		errors.Is(err, reconciliation.ErrAlreadyReconciled):
		return http.StatusConflict, body

	case errors.Is(err, matching.ErrUnknownInvoice),
		errors.Is(err, matching.ErrInvoiceLinked),
		errors.Is(err, matching.ErrConflictingLink),
		errors.Is(err, matching.ErrUnknownSubscription),
		errors.Is(err, matching.ErrUnknownDeclaration),
		errors.Is(err, matching.ErrEmptyOverride),
		errors.Is(err, matching.ErrNothingToConfirm):
		return http.StatusUnprocessableEntity, body

	case errors.Is(err, matching.ErrUnknownStrategy),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, importer.ErrUnknownBank),
		errors.Is(err, reconciliation.ErrEmptyImport),
		errors.Is(err, transaction.ErrDuplicateNumber),
		errors.Is(err, transaction.ErrMissingDate),
		errors.Is(err, transaction.ErrNegativeSide),
		errors.Is(err, transaction.ErrAmountMismatch):
		return http.StatusBadRequest, body

	case errors.As(err, &cascade):
		body.Step = string(cascade.Step)
		body.LineNumber = cascade.LineNumber

	case errors.As(err, &saveErrs):
		for _, se := range saveErrs {
			body.FailedLines = append(body.FailedLines, se.LineNumber)
		}

	default:
		body.Error = "internal error"
	}

	return http.StatusInternalServerError, body
}
