package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

type batchesState int

const (
	batchesStateBrowse batchesState = iota
	batchesStateFilter
	batchesStateConfirmDelete
)

type BatchesModel struct {
	CommonModel
	batchService *reconciliation.Service

	state   batchesState
	table   table.Model
	all     []*reconciliation.Batch
	batches []*reconciliation.Batch
	picker  TimeframePicker
	form    *huh.Form
	confirm *bool

	period  TimeframeSelectedMsg
	loading bool
	err     error
	status  string
}

func NewBatchesModel(svc *reconciliation.Service) BatchesModel {
	columns := []table.Column{
		{Title: "Batch", Width: 22},
		{Title: "Period", Width: 25},
		{Title: "Status", Width: 12},
		{Title: "Lines", Width: 7},
		{Title: "Matched", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return BatchesModel{
		batchService: svc,
		table:        t,
		picker:       NewTimeframePicker(TimeframeThisMonth),
		period:       TimeframeSelectedMsg{All: true},
		loading:      true,
	}
}

func (m BatchesModel) Title() string { return "Batches" }

func (m BatchesModel) ShortHelp() string {
	switch m.state {
	case batchesStateFilter:
		return "Enter: select | Esc: cancel"
	case batchesStateConfirmDelete:
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Enter: open | f: period | d: delete | r: refresh"
}

func (m BatchesModel) Init() tea.Cmd {
	return m.loadBatchesCmd()
}

func (m BatchesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadBatchesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.all = msg.batches
		m.applyFilter()

		return m, nil

	case TimeframeSelectedMsg:
		m.period = msg
		m.state = batchesStateBrowse
		m.picker.Reset()
		m.table.Focus()
		m.applyFilter()

		return m, nil

	case deleteBatchMsg:
		m.state = batchesStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error deleting %s: %v", msg.number, msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Deleted %s.", msg.number)

		return m, m.loadBatchesCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case batchesStateFilter:
		return m.updateFilter(msg)
	case batchesStateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m.updateBrowse(msg)
}

func (m BatchesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadBatchesCmd()
		case "f":
			m.state = batchesStateFilter
			m.picker.Reset()
			m.table.Blur()

			return m, m.picker.Init()
		case "enter":
			if b := m.selected(); b != nil {
				id := b.ID
				return m, func() tea.Msg { return OpenBatchMsg{ID: id} }
			}

			return m, nil
		case "d":
			return m.enterConfirmDelete()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BatchesModel) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = batchesStateBrowse
			m.table.Focus()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	return m, cmd
}

func (m BatchesModel) enterConfirmDelete() (tea.Model, tea.Cmd) {
	b := m.selected()
	if b == nil {
		return m, nil
	}

	m.confirm = new(false)

	description := "Its lines are removed."
	if b.Validated() {
		description = "The batch is validated: invoice links, payments and reconciliation records are reversed too."
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", b.Number)).
				Description(description).
				Affirmative("Delete").
				Negative("Keep").
				Value(m.confirm),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = batchesStateConfirmDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m BatchesModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = batchesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.confirm {
		m.state = batchesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	return m, m.deleteCmd(m.selected())
}

func (m BatchesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading batches...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	if m.state == batchesStateFilter {
		return lipgloss.NewStyle().Padding(1).Render(m.picker.View())
	}

	period := "All Time"
	if !m.period.All {
		period = FormatDate(m.period.Start) + " to " + FormatDate(m.period.End)
	}

	header := fmt.Sprintf("[f] Period: %s | %d batch(es)", activeStyle(period), len(m.batches))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == batchesStateConfirmDelete && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(64).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m BatchesModel) selected() *reconciliation.Batch {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.batches) {
		return nil
	}

	return m.batches[idx]
}

// applyFilter keeps the batches sharing at least one day with the period.
func (m *BatchesModel) applyFilter() {
	m.batches = nil

	for _, b := range m.all {
		if m.period.All || b.Overlaps(m.period.Start, m.period.End) {
			m.batches = append(m.batches, b)
		}
	}

	rows := make([]table.Row, 0, len(m.batches))
	for _, b := range m.batches {
		rows = append(rows, table.Row{
			b.Number,
			FormatDate(b.Start) + " to " + FormatDate(b.End),
			batchStatusLabel(b.Status),
			strconv.Itoa(b.LineCount),
			strconv.Itoa(b.MatchedCount),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadBatchesMsg struct {
	batches []*reconciliation.Batch
	err     error
}

func (m BatchesModel) loadBatchesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		batches, err := m.batchService.List(ctx)

		return loadBatchesMsg{batches: batches, err: err}
	}
}

type deleteBatchMsg struct {
	number string
	err    error
}

func (m BatchesModel) deleteCmd(b *reconciliation.Batch) tea.Cmd {
	if b == nil {
		return nil
	}

	id, number := b.ID, b.Number

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return deleteBatchMsg{number: number, err: m.batchService.Delete(ctx, id)}
	}
}
