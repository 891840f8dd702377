package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/export"
)

type exportState int

const (
	exportStateForm exportState = iota
	exportStateExporting
	exportStateResult
)

type exportForm struct {
	format export.Format
	path   string
}

type ExportModel struct {
	CommonModel
	exportService *export.Service

	batchID uuid.UUID
	number  string

	state   exportState
	err     error
	values  *exportForm
	form    *huh.Form
	spinner spinner.Model

	file    string
	summary string
}

func NewExportModel(svc *export.Service, batchID uuid.UUID, number string) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	values := &exportForm{format: export.FormatXLSX, path: "./exports"}

	return ExportModel{
		exportService: svc,
		batchID:       batchID,
		number:        number,
		state:         exportStateForm,
		values:        values,
		form:          buildExportForm(values),
		spinner:       s,
	}
}

func (m ExportModel) Title() string { return "Export " + m.number }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case exportStateForm:
		return m.updateForm(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = exportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(m.values.format, m.values.path))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.file = result.file
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	return m, nil
}

func buildExportForm(v *exportForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[export.Format]().
				Title("Format").
				Options(
					huh.NewOption("Excel workbook (.xlsx)", export.FormatXLSX),
					huh.NewOption("CSV (.csv)", export.FormatCSV),
				).
				Value(&v.format),
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(&v.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Exporting %s...", m.spinner.View(), m.number),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Written to "+m.file,
			"",
			m.summary,
		),
	)
}

type exportResultMsg struct {
	file string
	body string
	err  error
}

const exportTimeout = 2 * time.Minute

func (m ExportModel) runExportCmd(format export.Format, dir string) tea.Cmd {
	svc, id := m.exportService, m.batchID

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		if dir == "" {
			dir = "."
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportResultMsg{err: fmt.Errorf("create output directory: %w", err)}
		}

		tmp, err := os.CreateTemp(dir, ".export-*")
		if err != nil {
			return exportResultMsg{err: fmt.Errorf("create output file: %w", err)}
		}
		defer os.Remove(tmp.Name())

		name, err := svc.Export(ctx, id, format, tmp)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}

		if err != nil {
			return exportResultMsg{err: err}
		}

		file := filepath.Join(dir, name)
		if err := os.Rename(tmp.Name(), file); err != nil {
			return exportResultMsg{err: fmt.Errorf("move export into place: %w", err)}
		}

		body, err := svc.Summary(ctx, id)
		if err != nil {
			return exportResultMsg{file: file, err: err}
		}

		return exportResultMsg{file: file, body: body}
	}
}
