package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

const tabCount = 3

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.refresh != nil {
				return m, refreshCmd(m.refresh)
			}
		case "j", "down":
			if m.activeTab == 1 && m.selectedRun < len(m.summaries)-1 {
				m.selectedRun++
				maxVisible := m.visibleRuns()
				if m.selectedRun >= m.runScroll+maxVisible {
					m.runScroll = m.selectedRun - maxVisible + 1
				}
			}
		case "k", "up":
			if m.activeTab == 1 && m.selectedRun > 0 {
				m.selectedRun--
				if m.selectedRun < m.runScroll {
					m.runScroll = m.selectedRun
				}
			}
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			m.selectedRun = 0
			m.runScroll = 0
			m.showRunDetail = false
		case "enter":
			if m.activeTab == 1 && len(m.summaries) > 0 {
				m.showRunDetail = !m.showRunDetail
			}
		case "esc":
			m.showRunDetail = false
		case "s":
			// Start a run from the dashboard
			if m.activeTab == 0 && m.run != nil {
				if m.runActive {
					m.statusMsg = "Run already in flight"
					return m, nil
				}
				m.runActive = true
				m.statusMsg = "Run started..."
				return m, startRunCmd(m.run)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		if m.refresh != nil {
			return m, tea.Batch(refreshCmd(m.refresh), tickCmd())
		}
		return m, tickCmd()

	case RefreshMsg:
		if msg.Err != nil {
			m.statusMsg = "Refresh failed: " + msg.Err.Error()
			return m, nil
		}
		m.summaries = msg.Summaries
		m.keywords = msg.Keywords
		if m.selectedRun >= len(m.summaries) {
			m.selectedRun = 0
			m.runScroll = 0
		}
		return m, nil

	case RunCompleteMsg:
		m.runActive = false
		if msg.Err != nil {
			m.statusMsg = "Run failed: " + msg.Err.Error()
		} else if msg.Summary != nil {
			m.statusMsg = fmt.Sprintf("Run complete: %d approved of %d generated",
				msg.Summary.Approved, msg.Summary.CandidatesGenerated)
		}
		if m.refresh != nil {
			return m, refreshCmd(m.refresh)
		}
		return m, nil

	case StatusUpdateMsg:
		m.statusMsg = string(msg)
		return m, nil
	}

	return m, nil
}

func (m Model) visibleRuns() int {
	maxVisible := 15
	if m.height > 0 && m.height-10 < maxVisible {
		maxVisible = m.height - 10
		if maxVisible < 3 {
			maxVisible = 3
		}
	}
	return maxVisible
}
