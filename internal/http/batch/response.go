package batch

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

type batchResponse struct {
	ID           uuid.UUID             `json:"id"`
	Number       string                `json:"number"`
	StartDate    string                `json:"start_date"`
	EndDate      string                `json:"end_date"`
	Status       reconciliation.Status `json:"status"`
	LineCount    int                   `json:"line_count"`
	MatchedCount int                   `json:"matched_count"`
	CreatedAt    time.Time             `json:"created_at"`
	ValidatedAt  *time.Time            `json:"validated_at,omitempty"`
}

type partnerResponse struct {
	ID       uuid.UUID                `json:"id"`
	Name     string                   `json:"name"`
	Category matching.PartnerCategory `json:"category"`
}

type lineResponse struct {
	LineNumber          string           `json:"line_number"`
	Date                string           `json:"date"`
	Label               string           `json:"label"`
	Debit               decimal.Decimal  `json:"debit"`
	Credit              decimal.Decimal  `json:"credit"`
	Status              matching.Status  `json:"status"`
	InvoiceIDs          []uuid.UUID      `json:"invoice_ids,omitempty"`
	SuggestedInvoiceIDs []uuid.UUID      `json:"suggested_invoice_ids,omitempty"`
	SubscriptionID      *uuid.UUID       `json:"subscription_id,omitempty"`
	DeclarationID       *uuid.UUID       `json:"declaration_id,omitempty"`
	Partner             *partnerResponse `json:"partner,omitempty"`
	Score               int              `json:"score"`
	Notes               string           `json:"notes,omitempty"`
}

type batchDetailResponse struct {
	batchResponse
	Lines []lineResponse `json:"lines"`
}

func toResponse(b reconciliation.Batch) batchResponse {
	return batchResponse{
		ID:           b.ID,
		Number:       b.Number,
		StartDate:    b.Start.Format(time.DateOnly),
		EndDate:      b.End.Format(time.DateOnly),
		Status:       b.Status,
		LineCount:    b.LineCount,
		MatchedCount: b.MatchedCount,
		CreatedAt:    b.CreatedAt,
		ValidatedAt:  b.ValidatedAt,
	}
}

func toResponseList(batches []*reconciliation.Batch) []batchResponse {
	resp := make([]batchResponse, len(batches))
	for i, b := range batches {
		resp[i] = toResponse(*b)
	}

	return resp
}

func toLineResponse(l matching.Line) lineResponse {
	resp := lineResponse{
		LineNumber:          l.Number(),
		Date:                l.Transaction.Date.Format(time.DateOnly),
		Label:               l.Transaction.Label,
		Debit:               l.Transaction.Debit,
		Credit:              l.Transaction.Credit,
		Status:              l.Status,
		InvoiceIDs:          l.Link.InvoiceIDs,
		SuggestedInvoiceIDs: l.Link.SuggestedInvoiceIDs,
		SubscriptionID:      l.Link.SubscriptionID,
		DeclarationID:       l.Link.DeclarationID,
		Score:               l.Link.Score,
		Notes:               l.Link.Notes,
	}

	if p := l.Link.Partner; p != nil {
		resp.Partner = &partnerResponse{ID: p.ID, Name: p.Name, Category: p.Category}
	}

	return resp
}
