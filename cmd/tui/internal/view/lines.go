package view

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

type linesState int

const (
	linesStateLoading linesState = iota
	linesStateBrowse
	linesStateLink
	linesStateConfirmValidate
)

// lineItem wraps a reconciliation line to implement list.Item.
type lineItem struct {
	line    matching.Line
	summary string
}

func (i lineItem) Title() string {
	t := i.line.Transaction
	return fmt.Sprintf("%s  %10s  %-9s  %s", FormatDate(t.Date), FormatAmount(t.Amount), statusStyle(i.line.Status), t.Label)
}

func (i lineItem) Description() string {
	return i.summary
}

func (i lineItem) FilterValue() string {
	return i.line.Transaction.Label + " " + i.summary
}

// describeLink summarises what a line is linked to, resolving ids against snap.
func describeLink(l matching.Line, snap *matching.Snapshot) string {
	var parts []string

	refs := func(ids []uuid.UUID) string {
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			if inv, ok := snap.Invoice(id); ok {
				names = append(names, inv.Number)
			} else {
				names = append(names, id.String()[:8])
			}
		}

		return strings.Join(names, ", ")
	}

	if len(l.Link.InvoiceIDs) > 0 {
		parts = append(parts, "Invoices: "+refs(l.Link.InvoiceIDs))
	}

	if len(l.Link.SuggestedInvoiceIDs) > 0 {
		parts = append(parts, "Suggested: "+refs(l.Link.SuggestedInvoiceIDs))
	}

	if id := l.Link.SubscriptionID; id != nil {
		if s, ok := snap.Subscription(*id); ok {
			parts = append(parts, "Subscription: "+s.Name)
		}
	}

	if id := l.Link.DeclarationID; id != nil {
		if d, ok := snap.Declaration(*id); ok {
			parts = append(parts, "Declaration: "+d.Name)
		}
	}

	if p := l.Link.Partner; p != nil {
		parts = append(parts, fmt.Sprintf("Partner: %s (%s)", p.Name, p.Category))
	}

	if len(parts) == 0 {
		return ""
	}

	if l.Link.Score > 0 {
		parts = append(parts, fmt.Sprintf("score %d", l.Link.Score))
	}

	return strings.Join(parts, " | ")
}

type LinesModel struct {
	CommonModel
	batchService *reconciliation.Service

	id      uuid.UUID
	session *reconciliation.Session

	state    linesState
	list     list.Model
	form     *huh.Form
	link     *linkForm
	validate *bool

	status string
	err    error
}

func NewLinesModel(svc *reconciliation.Service, id uuid.UUID) LinesModel {
	l := list.New([]list.Item{}, lineItemDelegate{}, 0, 0)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return LinesModel{
		batchService: svc,
		id:           id,
		list:         l,
	}
}

func (m LinesModel) Title() string { return "Reconcile" }

func (m LinesModel) ShortHelp() string {
	switch m.state {
	case linesStateLink, linesStateConfirmValidate:
		return "Esc: cancel | Enter/Tab: navigate form"
	}

	return "1-4: strategy | a: all | c: confirm | e: link | r: reset | u: review | s: save | v: validate | x: export | Esc: back"
}

func (m LinesModel) Init() tea.Cmd {
	return m.openCmd()
}

// Refreshed re-reads the lines of the session, after another screen changed them.
func (m LinesModel) Refreshed() LinesModel {
	if m.session != nil {
		m.refreshListItems()
	}

	return m
}

func (m LinesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.session = msg.session
		m.state = linesStateBrowse
		m.list.Title = m.session.Batch().Number
		m.refreshListItems()

		return m, nil

	case lineActionMsg:
		m.state = linesStateBrowse
		m.form = nil

		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
		} else {
			m.status = msg.done
		}

		m.refreshListItems()

		return m, nil

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil
	}

	switch m.state {
	case linesStateLoading:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}

		return m, nil
	case linesStateLink:
		return m.updateLink(msg)
	case linesStateConfirmValidate:
		return m.updateConfirmValidate(msg)
	}

	return m.updateBrowse(msg)
}

func (m LinesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)

		return m, cmd
	}

	switch key := keyMsg.String(); key {
	case "esc":
		if m.list.FilterState() == list.FilterApplied {
			break
		}

		return m, tea.Sequence(m.flushCmd(), Back)
	case "1", "2", "3", "4":
		strategy := matching.Strategies[key[0]-'1']
		return m.run(strategy)
	case "a":
		return m.run(matching.Strategies...)
	case "c":
		return m.confirm()
	case "e":
		return m.startLink()
	case "r":
		if l, ok := m.selected(); ok {
			return m, m.resetCmd(l.Number())
		}

		return m, nil
	case "u":
		sess := m.session
		return m, func() tea.Msg { return OpenReviewMsg{Session: sess} }
	case "s":
		return m, m.flushCmd()
	case "v":
		return m.startConfirmValidate()
	case "x":
		b := m.session.Batch()
		return m, tea.Sequence(m.flushCmd(), func() tea.Msg { return OpenExportMsg{ID: b.ID, Number: b.Number} })
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

// run applies the strategies in order and reports how many lines changed.
func (m LinesModel) run(strategies ...matching.Strategy) (tea.Model, tea.Cmd) {
	changed := 0

	for _, s := range strategies {
		diff, err := m.session.Run(s)
		if err != nil {
			m.status = errorStyle(fmt.Sprintf("Error running %s: %v", s, err))
			return m, nil
		}

		changed += len(diff)
	}

	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = string(s)
	}

	m.status = fmt.Sprintf("%s: %d line(s) updated.", strings.Join(names, ", "), changed)
	m.refreshListItems()

	return m, nil
}

func (m LinesModel) confirm() (tea.Model, tea.Cmd) {
	l, ok := m.selected()
	if !ok {
		return m, nil
	}

	if _, err := m.session.Confirm(l.Number()); err != nil {
		m.status = errorStyle(fmt.Sprintf("Error: %v", err))
		return m, nil
	}

	m.status = fmt.Sprintf("Confirmed %s.", l.Number())
	m.refreshListItems()

	return m, nil
}

func (m LinesModel) startLink() (tea.Model, tea.Cmd) {
	l, ok := m.selected()
	if !ok {
		return m, nil
	}

	if b := m.session.Batch(); b.Validated() {
		m.status = errorStyle("Batch is validated: reset the line first.")
		return m, nil
	}

	m.link, m.form = newLinkForm(l, m.session.Snapshot())
	m.state = linesStateLink

	return m, m.form.Init()
}

func (m LinesModel) updateLink(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = linesStateBrowse
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = linesStateBrowse
	m.form = nil

	if _, err := m.session.Override(m.link.override()); err != nil {
		m.status = errorStyle(fmt.Sprintf("Error: %v", err))
		return m, nil
	}

	m.status = fmt.Sprintf("Updated %s.", m.link.line)
	m.refreshListItems()

	return m, nil
}

func (m LinesModel) startConfirmValidate() (tea.Model, tea.Cmd) {
	b := m.session.Batch()
	if b.Validated() {
		m.status = errorStyle("Batch is already validated.")
		return m, nil
	}

	total, matched := len(m.session.Lines()), 0
	for _, l := range m.session.Lines() {
		if l.Status == matching.StatusMatched {
			matched++
		}
	}

	m.validate = new(false)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Validate %s?", b.Number)).
				Description(fmt.Sprintf(
					"%d of %d lines are matched. Matches are written back to invoices and payments,\n"+
						"and the period %s to %s is closed to other batches.",
					matched, total, FormatDate(b.Start), FormatDate(b.End))).
				Affirmative("Validate").
				Negative("Cancel").
				Value(m.validate),
		),
	).WithWidth(80).WithShowHelp(false)

	m.state = linesStateConfirmValidate

	return m, m.form.Init()
}

func (m LinesModel) updateConfirmValidate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = linesStateBrowse
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.validate {
		m.state = linesStateBrowse
		m.form = nil

		return m, nil
	}

	m.status = "Validating..."

	return m, m.validateCmd()
}

func (m LinesModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to go back)")
	}

	if m.state == linesStateLoading {
		return lipgloss.NewStyle().Padding(2).Render("Opening batch...")
	}

	header := m.headerView()

	if m.state == linesStateLink || m.state == linesStateConfirmValidate {
		info := ""
		if l, ok := m.selected(); ok && m.state == linesStateLink {
			info = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1).
				Render(fmt.Sprintf("%s  |  %s  |  %s\n%s",
					l.Number(), FormatDate(l.Transaction.Date), FormatAmount(l.Transaction.Amount), l.Transaction.Label)) + "\n"
		}

		return lipgloss.NewStyle().Padding(1).Render(header + "\n\n" + info + m.form.View())
	}

	statusLine := ""
	if m.status != "" {
		statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
	}

	return lipgloss.NewStyle().Padding(1).Render(header + "\n" + statusLine + m.list.View())
}

func (m LinesModel) headerView() string {
	b := m.session.Batch()

	counts := map[matching.Status]int{}
	for _, l := range m.session.Lines() {
		counts[l.Status]++
	}

	return fmt.Sprintf("%s  %s to %s  [%s]   %s %d  %s %d  %s %d",
		activeStyle(b.Number), FormatDate(b.Start), FormatDate(b.End), batchStatusLabel(b.Status),
		statusStyle(matching.StatusMatched), counts[matching.StatusMatched],
		statusStyle(matching.StatusUncertain), counts[matching.StatusUncertain],
		statusStyle(matching.StatusUnmatched), counts[matching.StatusUnmatched],
	)
}

func (m LinesModel) selected() (matching.Line, bool) {
	item, ok := m.list.SelectedItem().(lineItem)
	if !ok {
		return matching.Line{}, false
	}

	return m.session.Line(item.line.Number())
}

func (m *LinesModel) refreshListItems() {
	snap := m.session.Snapshot()
	lines := m.session.Lines()

	items := make([]list.Item, len(lines))
	for i, l := range lines {
		items[i] = lineItem{line: l, summary: describeLink(l, snap)}
	}

	m.list.SetItems(items)
}

// Messages

type sessionMsg struct {
	session *reconciliation.Session
	err     error
}

func (m LinesModel) openCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		sess, err := m.batchService.Open(ctx, m.id)

		return sessionMsg{session: sess, err: err}
	}
}

type lineActionMsg struct {
	done string
	err  error
}

func (m LinesModel) resetCmd(number string) tea.Cmd {
	sess := m.session

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return lineActionMsg{done: fmt.Sprintf("Reset %s.", number), err: sess.Reset(ctx, number)}
	}
}

func (m LinesModel) flushCmd() tea.Cmd {
	sess := m.session
	if sess == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return lineActionMsg{done: "Saved.", err: sess.Flush(ctx)}
	}
}

func (m LinesModel) validateCmd() tea.Cmd {
	sess := m.session

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		if err := sess.Validate(ctx); err != nil {
			return lineActionMsg{err: err}
		}

		return lineActionMsg{done: fmt.Sprintf("Validated %s.", sess.Batch().Number)}
	}
}

// lineItemDelegate renders lines in the list.
type lineItemDelegate struct{}

func (d lineItemDelegate) Height() int                             { return 2 }
func (d lineItemDelegate) Spacing() int                            { return 0 }
func (d lineItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d lineItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(lineItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Bold(true).Render("> " + title)
	} else {
		title = "  " + title
	}

	fmt.Fprintf(w, "%s\n", title)

	if i.summary == "" {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(i.summary))
}
