package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct{}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// OpenBatchMsg asks for the lines screen of a batch.
type OpenBatchMsg struct {
	ID uuid.UUID
}

// OpenReviewMsg asks for the suggestion review of an open batch.
type OpenReviewMsg struct {
	Session *reconciliation.Session
}

// OpenExportMsg asks for the export screen of a batch.
type OpenExportMsg struct {
	ID     uuid.UUID
	Number string
}
