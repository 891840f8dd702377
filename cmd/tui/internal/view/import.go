package view

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/reconciler/internal/importer"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

const importTimeout = 2 * time.Minute

type importStep int

const (
	importStepBank importStep = iota
	importStepFile
	importStepRunning
	importStepDone
)

// ImportModel turns a bank statement file into a new batch.
type ImportModel struct {
	CommonModel
	batchService  *reconciliation.Service
	importService *importer.Service

	step     importStep
	bank     *importer.Bank
	bankForm *huh.Form
	files    filepicker.Model
	spinner  spinner.Model

	path  string
	batch *reconciliation.Batch
	err   error
}

func NewImportModel(batchSvc *reconciliation.Service, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ImportModel{
		batchService:  batchSvc,
		importService: impSvc,
		bank:          new(importer.BankCGD),
		files:         fp,
		spinner:       s,
	}
	m.bankForm = m.newBankForm()

	return m
}

func (m ImportModel) newBankForm() *huh.Form {
	var opts []huh.Option[importer.Bank]
	for _, b := range m.importService.Banks() {
		opts = append(opts, huh.NewOption(string(b), b))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[importer.Bank]().
				Title("Bank").
				Description("Statement layout to parse").
				Options(opts...).
				Value(m.bank),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m ImportModel) Title() string { return "Import Statement" }

func (m ImportModel) ShortHelp() string {
	switch m.step {
	case importStepRunning:
		return "Importing..."
	case importStepDone:
		if m.err == nil {
			return "Enter: open batch | Esc: import another"
		}

		return "Esc: try again"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.bankForm.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(importResultMsg); ok {
		m.step = importStepDone
		m.batch, m.err = result.batch, result.err

		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.back()
	}

	switch m.step {
	case importStepBank:
		form, cmd := m.bankForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.bankForm = f
		}

		if m.bankForm.State != huh.StateCompleted {
			return m, cmd
		}

		m.step = importStepFile

		return m, m.files.Init()

	case importStepFile:
		var cmd tea.Cmd
		m.files, cmd = m.files.Update(msg)

		if didSelect, path := m.files.DidSelectFile(msg); didSelect {
			m.step = importStepRunning
			m.path = path

			return m, tea.Batch(m.spinner.Tick, m.importCmd(*m.bank, path))
		}

		return m, cmd

	case importStepRunning:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case importStepDone:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.batch != nil {
			id := m.batch.ID
			return m, func() tea.Msg { return OpenBatchMsg{ID: id} }
		}
	}

	return m, nil
}

func (m ImportModel) back() (tea.Model, tea.Cmd) {
	switch m.step {
	case importStepFile, importStepDone:
		m.step = importStepBank
		m.batch, m.err = nil, nil
		m.bankForm = m.newBankForm()

		return m, m.bankForm.Init()
	case importStepRunning:
		return m, nil
	}

	return m, Back
}

func (m ImportModel) View() string {
	switch m.step {
	case importStepBank:
		return lipgloss.NewStyle().Padding(1).Render(m.bankForm.View())
	case importStepFile:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select a %s statement:\n\n%s", *m.bank, m.files.View()),
		)
	case importStepRunning:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("%s Importing %s...", m.spinner.View(), m.path),
		)
	}

	return lipgloss.NewStyle().Padding(2).Render(m.resultView())
}

func (m ImportModel) resultView() string {
	var already *reconciliation.AlreadyReconciledError

	switch {
	case errors.As(m.err, &already):
		return errorStyle(fmt.Sprintf("Period already reconciled by %s (%s to %s).",
			already.Number, FormatDate(already.Start), FormatDate(already.End)))
	case m.err != nil:
		return errorStyle(fmt.Sprintf("Error: %v", m.err))
	}

	b := m.batch
	done := lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(
		fmt.Sprintf("Imported %d lines into %s", b.LineCount, b.Number))

	return fmt.Sprintf("%s\nPeriod %s to %s", done, FormatDate(b.Start), FormatDate(b.End))
}

type importResultMsg struct {
	batch *reconciliation.Batch
	err   error
}

func (m ImportModel) importCmd(bank importer.Bank, path string) tea.Cmd {
	impSvc, batchSvc := m.importService, m.batchService

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		txs, err := impSvc.Import(bank, f)
		if err != nil {
			return importResultMsg{err: fmt.Errorf("parse %s statement: %w", bank, err)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		b, err := batchSvc.Import(ctx, txs)

		return importResultMsg{batch: b, err: err}
	}
}
