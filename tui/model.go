package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/merchpilot/merchpilot/internal/domain"
)

// RefreshFunc pulls the current summaries and negative keyword set
// from the memory store.
type RefreshFunc func() ([]*domain.RunSummary, []string, error)

// RunFunc triggers one pipeline run and blocks until it finishes.
type RunFunc func(ctx context.Context) (*domain.RunSummary, error)

// Model is the TUI application model
type Model struct {
	// Data
	summaries []*domain.RunSummary
	keywords  []string

	// Run state
	runActive bool

	// UI state
	width         int
	height        int
	activeTab     int
	selectedRun   int
	runScroll     int
	showRunDetail bool
	statusMsg     string

	// Refresh
	lastRefresh time.Time
	refresh     RefreshFunc
	run         RunFunc
}

// ModelConfig holds initial data for the TUI model
type ModelConfig struct {
	Summaries []*domain.RunSummary
	Keywords  []string
	Refresh   RefreshFunc
	Run       RunFunc
}

// NewModel creates a new TUI model
func NewModel(cfg ModelConfig) Model {
	return Model{
		summaries: cfg.Summaries,
		keywords:  cfg.Keywords,
		refresh:   cfg.Refresh,
		run:       cfg.Run,
		activeTab: 0,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
	)
}

// TickMsg triggers a refresh
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// RefreshMsg carries freshly loaded store data
type RefreshMsg struct {
	Summaries []*domain.RunSummary
	Keywords  []string
	Err       error
}

func refreshCmd(refresh RefreshFunc) tea.Cmd {
	return func() tea.Msg {
		sums, kws, err := refresh()
		return RefreshMsg{Summaries: sums, Keywords: kws, Err: err}
	}
}

// RunCompleteMsg is sent when a manually triggered run finishes
type RunCompleteMsg struct {
	Summary *domain.RunSummary
	Err     error
}

func startRunCmd(run RunFunc) tea.Cmd {
	return func() tea.Msg {
		sum, err := run(context.Background())
		return RunCompleteMsg{Summary: sum, Err: err}
	}
}

// StatusUpdateMsg updates the status line
type StatusUpdateMsg string
