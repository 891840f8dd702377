package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

// ReviewModel walks through the pending invoice suggestions of an open batch.
type ReviewModel struct {
	CommonModel
	session *reconciliation.Session

	queue      []string
	current    *matching.Line
	totalCount int
	confirmed  int

	notesInput textinput.Model
	status     string
}

func NewReviewModel(sess *reconciliation.Session) ReviewModel {
	ti := textinput.New()
	ti.Placeholder = "Notes"
	ti.Width = 60

	m := ReviewModel{
		session:    sess,
		notesInput: ti,
	}

	for _, l := range sess.Lines() {
		if len(l.Link.SuggestedInvoiceIDs) > 0 {
			m.queue = append(m.queue, l.Number())
		}
	}

	m.totalCount = len(m.queue)
	m.next()

	return m
}

func (m ReviewModel) Title() string { return "Review Suggestions" }

func (m ReviewModel) ShortHelp() string {
	return "Enter: confirm & next | Tab: skip | Esc: back"
}

func (m ReviewModel) Init() tea.Cmd {
	if m.current == nil {
		return nil
	}

	return textinput.Blink
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyTab:
			if m.current != nil {
				m.next()
			}

			return m, nil
		case tea.KeyEnter:
			if m.current != nil {
				return m.confirmCurrent()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.current != nil {
		m.notesInput, cmd = m.notesInput.Update(msg)
	}

	return m, cmd
}

func (m ReviewModel) confirmCurrent() (tea.Model, tea.Cmd) {
	number := m.current.Number()

	if notes := strings.TrimSpace(m.notesInput.Value()); notes != m.current.Link.Notes {
		if _, err := m.session.Override(matching.Override{LineNumber: number, Notes: &notes}); err != nil {
			m.status = errorStyle(fmt.Sprintf("Error saving notes: %v", err))
			return m, nil
		}
	}

	if _, err := m.session.Confirm(number); err != nil {
		m.status = errorStyle(fmt.Sprintf("Error confirming %s: %v", number, err))
		return m, nil
	}

	m.confirmed++
	m.next()

	return m, textinput.Blink
}

// next pops the queue, skipping lines whose suggestion went away meanwhile.
func (m *ReviewModel) next() {
	for len(m.queue) > 0 {
		number := m.queue[0]
		m.queue = m.queue[1:]

		l, ok := m.session.Line(number)
		if !ok || len(l.Link.SuggestedInvoiceIDs) == 0 {
			continue
		}

		m.current = &l
		m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)
		m.notesInput.SetValue(l.Link.Notes)
		m.notesInput.Focus()

		return
	}

	m.current = nil
	m.notesInput.Blur()

	if m.totalCount == 0 {
		m.status = "No pending suggestions."
	} else {
		m.status = fmt.Sprintf("All done! %d of %d suggestion(s) confirmed.", m.confirmed, m.totalCount)
	}
}

func (m ReviewModel) View() string {
	if m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	tx := m.current.Transaction
	info := fmt.Sprintf(
		"Line:   %s\nDate:   %s\nAmount: %s\nLabel:  %s\n",
		m.current.Number(),
		FormatDate(tx.Date),
		FormatAmount(tx.Amount),
		tx.Label,
	)

	snap := m.session.Snapshot()

	var b strings.Builder

	total := decimal.Zero
	for _, id := range m.current.Link.SuggestedInvoiceIDs {
		inv, ok := snap.Invoice(id)
		if !ok {
			continue
		}

		total = total.Add(inv.Amount)
		fmt.Fprintf(&b, "  %s  %s  %10s  %s\n", inv.Number, FormatDate(inv.EmissionDate), inv.Amount.StringFixed(2), inv.PartnerName)
	}

	fmt.Fprintf(&b, "  %s  score %d\n", activeStyle("total "+total.StringFixed(2)), m.current.Link.Score)

	content := fmt.Sprintf("%s\n\n%s\nSuggested invoices:\n%s\nNotes:\n%s",
		m.status, info, b.String(), m.notesInput.View())

	return lipgloss.NewStyle().Padding(2).Render(content)
}
