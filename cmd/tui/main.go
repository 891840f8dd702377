package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/reconciler/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/reconciler/internal/config"
	"github.com/MrJamesThe3rd/reconciler/internal/database"
	"github.com/MrJamesThe3rd/reconciler/internal/export"
	"github.com/MrJamesThe3rd/reconciler/internal/importer"
	"github.com/MrJamesThe3rd/reconciler/internal/logging"
	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/reconciler/internal/matching/store"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
	reconStore "github.com/MrJamesThe3rd/reconciler/internal/reconciliation/store"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

type model struct {
	batchService  *reconciliation.Service
	importService *importer.Service
	exportService *export.Service

	currentView View

	importView  view.ImportModel
	batchesView view.BatchesModel
	linesView   view.LinesModel
	reviewView  view.ReviewModel
	exportView  view.ExportModel
}

type View int

const (
	ViewMenu    View = 0
	ViewImport  View = 1
	ViewBatches View = 2
	ViewLines   View = 3
	ViewReview  View = 4
	ViewExport  View = 5
)

func newModel(batchSvc *reconciliation.Service, impSvc *importer.Service, expSvc *export.Service) model {
	return model{
		batchService:  batchSvc,
		importService: impSvc,
		exportService: expSvc,
		currentView:   ViewMenu,
		importView:    view.NewImportModel(batchSvc, impSvc),
		batchesView:   view.NewBatchesModel(batchSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.batchService, m.importService)

				return m, m.importView.Init()
			case "2":
				m.currentView = ViewBatches
				m.batchesView = view.NewBatchesModel(m.batchService)

				return m, m.batchesView.Init()
			}
		}

	case view.OpenBatchMsg:
		m.currentView = ViewLines
		m.linesView = view.NewLinesModel(m.batchService, msg.ID)

		return m, m.linesView.Init()

	case view.OpenReviewMsg:
		m.currentView = ViewReview
		m.reviewView = view.NewReviewModel(msg.Session)

		return m, m.reviewView.Init()

	case view.OpenExportMsg:
		m.currentView = ViewExport
		m.exportView = view.NewExportModel(m.exportService, msg.ID, msg.Number)

		return m, m.exportView.Init()

	case view.BackMsg:
		switch m.currentView {
		case ViewReview, ViewExport:
			m.currentView = ViewLines
			m.linesView = m.linesView.Refreshed()
		case ViewLines:
			m.currentView = ViewBatches
			return m, m.batchesView.Init()
		default:
			m.currentView = ViewMenu
		}

		return m, nil
	}

	switch m.currentView {
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewBatches:
		var newModel tea.Model
		newModel, cmd = m.batchesView.Update(msg)
		m.batchesView = newModel.(view.BatchesModel)
	case ViewLines:
		var newModel tea.Model
		newModel, cmd = m.linesView.Update(msg)
		m.linesView = newModel.(view.LinesModel)
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	var current view.View

	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Bank Reconciliation\n\n" +
				"1. Import Statement\n" +
				"2. Batches\n\n" +
				"q. Quit",
		)
	case ViewImport:
		current = m.importView
	case ViewBatches:
		current = m.batchesView
	case ViewLines:
		current = m.linesView
	case ViewReview:
		current = m.reviewView
	case ViewExport:
		current = m.exportView
	default:
		return "Unknown View"
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Render(current.Title())
	help := lipgloss.NewStyle().Faint(true).Render(current.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, current.View(), help)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := logging.New(logFile, cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.ConnectionString(), cfg.Pool())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	batchSvc := reconciliation.NewService(reconStore.New(db), matchingStore.New(db), matching.NewEngine(cfg.MatchingConfig()),
		reconciliation.WithLogger(logger),
		reconciliation.WithAutoSaveDelay(cfg.Reconcile.AutoSaveDelay),
		reconciliation.WithFlushConcurrency(cfg.Reconcile.FlushConcurrency),
		reconciliation.WithBatchPrefix(cfg.Reconcile.BatchPrefix),
		reconciliation.WithLineNumbers(transaction.NewLineNumberGenerator(cfg.Reconcile.LinePrefix)),
	)

	p := tea.NewProgram(newModel(batchSvc, importer.NewService(), export.NewService(batchSvc)), tea.WithAltScreen())

	_, runErr := p.Run()

	if err := batchSvc.Close(ctx); err != nil {
		slog.Error("failed to flush open batches", "error", err)

		if runErr == nil {
			runErr = err
		}
	}

	return runErr
}
