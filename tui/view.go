package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	approvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	flaggedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Underline(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	nicheHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	totalApproved, totalGenerated := 0, 0
	for _, s := range m.summaries {
		totalApproved += s.Approved
		totalGenerated += s.CandidatesGenerated
	}

	header := fmt.Sprintf(" MerchPilot │ Runs: %d │ Generated: %d │ Approved: %d │ Keywords: %d ",
		len(m.summaries), totalGenerated, totalApproved, len(m.keywords))
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	switch m.activeTab {
	case 0: // Dashboard
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderLatestRun()))
		b.WriteString("\n")
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderNiches()))
		b.WriteString("\n")

	case 1: // Runs
		if m.showRunDetail {
			b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderRunDetail()))
		} else {
			b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderRuns()))
		}
		b.WriteString("\n")

	case 2: // Keywords
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderKeywords()))
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		line := fmt.Sprintf(" %s ", m.statusMsg)
		if m.runActive {
			b.WriteString(approvedStyle.Width(m.width).Render("▶ " + line))
		} else {
			b.WriteString(dimStyle.Width(m.width).Render(line))
		}
		b.WriteString("\n")
	}

	var statusBar string
	switch m.activeTab {
	case 1:
		if m.showRunDetail {
			statusBar = " [esc/enter]back [tab]switch [q]uit "
		} else {
			statusBar = " [tab]switch [j/k]navigate [enter]details [r]efresh [q]uit "
		}
	default:
		if m.runActive {
			statusBar = " [tab]switch [r]efresh [q]uit (run in flight) "
		} else {
			statusBar = " [tab]switch [s]tart run [r]efresh [q]uit "
		}
	}
	b.WriteString(statusBarStyle.Width(m.width).Render(statusBar))

	return b.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Dashboard", "Runs", "Keywords"}
	var parts []string

	for i, tab := range tabs {
		if i == m.activeTab {
			parts = append(parts, tabActiveStyle.Render(fmt.Sprintf(" %s ", tab)))
		} else {
			parts = append(parts, tabInactiveStyle.Render(fmt.Sprintf(" %s ", tab)))
		}
	}

	return strings.Join(parts, "│")
}

func (m Model) renderLatestRun() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("LATEST RUN"))
	b.WriteString("\n")

	if len(m.summaries) == 0 {
		b.WriteString(dimStyle.Render("  No runs recorded yet. Press [s] to start one."))
		return b.String()
	}

	s := m.summaries[0]
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s  started %s  took %s",
		truncate(s.ExecutionID, 12),
		s.StartedAt.Format("2006-01-02 15:04"),
		formatDuration(s.FinishedAt.Sub(s.StartedAt)))))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("  Niches:     %d researched, %d retained\n",
		s.NichesResearched, s.NichesRetained))
	b.WriteString(fmt.Sprintf("  Candidates: %d generated\n", s.CandidatesGenerated))

	b.WriteString("  ")
	b.WriteString(approvedStyle.Render(fmt.Sprintf("✓ %d approved", s.Approved)))
	b.WriteString(dimStyle.Render("   "))
	b.WriteString(flaggedStyle.Render(fmt.Sprintf("⚠ %d IP", s.IPFlagged)))
	b.WriteString(dimStyle.Render("   "))
	b.WriteString(warningStyle.Render(fmt.Sprintf("%d compliance  %d quality",
		s.ComplianceFlagged, s.QualityRejected)))
	b.WriteString("\n")

	if s.InfraFailures > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("  %d infrastructure failure(s)", s.InfraFailures)))
		b.WriteString("\n")
	}
	if s.MutationsGenerated > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  Mutations: %d generated, %d approved",
			s.MutationsGenerated, s.MutationsApproved)))
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderNiches() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("NICHES (latest run)"))
	b.WriteString("\n")

	if len(m.summaries) == 0 || len(m.summaries[0].PerNiche) == 0 {
		b.WriteString(dimStyle.Render("  No niche data"))
		return b.String()
	}

	s := m.summaries[0]
	names := make([]string, 0, len(s.PerNiche))
	for name := range s.PerNiche {
		names = append(names, name)
	}
	sort.Strings(names)

	header := fmt.Sprintf("  %-28s %10s %10s %10s", "Niche", "Generated", "Approved", "Rejected")
	b.WriteString(nicheHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, name := range names {
		ns := s.PerNiche[name]
		line := fmt.Sprintf("  %-28s %10d %10d %10d",
			truncate(name, 28), ns.Generated, ns.Approved, ns.Rejected)
		if ns.Approved > 0 {
			b.WriteString(approvedStyle.Render(line))
		} else {
			b.WriteString(dimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderRuns() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("RUN HISTORY"))
	b.WriteString("\n")

	if len(m.summaries) == 0 {
		b.WriteString(dimStyle.Render("  No runs recorded"))
		return b.String()
	}

	header := fmt.Sprintf("  %-14s %-17s %9s %10s %9s %8s", "Execution", "Started", "Generated", "Approved", "Flagged", "Took")
	b.WriteString(nicheHeaderStyle.Render(header))
	b.WriteString("\n")

	maxVisible := m.visibleRuns()
	start := m.runScroll
	if start >= len(m.summaries) {
		start = 0
	}
	end := start + maxVisible
	if end > len(m.summaries) {
		end = len(m.summaries)
	}

	for i := start; i < end; i++ {
		s := m.summaries[i]
		flagged := s.IPFlagged + s.ComplianceFlagged + s.QualityRejected
		line := fmt.Sprintf("  %-14s %-17s %9d %10d %9d %8s",
			truncate(s.ExecutionID, 14),
			s.StartedAt.Format("01-02 15:04"),
			s.CandidatesGenerated, s.Approved, flagged,
			formatDuration(s.FinishedAt.Sub(s.StartedAt)))

		if i == m.selectedRun {
			b.WriteString(tabActiveStyle.Render("> " + line[2:]))
		} else if s.Approved > 0 {
			b.WriteString(approvedStyle.Render(line))
		} else {
			b.WriteString(dimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.summaries) > maxVisible {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... showing %d-%d of %d (j/k to scroll)",
			start+1, end, len(m.summaries))))
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderRunDetail() string {
	var b strings.Builder

	if m.selectedRun >= len(m.summaries) {
		return dimStyle.Render("  No run selected")
	}
	s := m.summaries[m.selectedRun]

	b.WriteString(titleStyle.Render(fmt.Sprintf("RUN DETAIL: %s", s.ExecutionID)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  Started:    %s\n", s.StartedAt.Format(time.RFC822)))
	b.WriteString(fmt.Sprintf("  Finished:   %s\n", s.FinishedAt.Format(time.RFC822)))
	b.WriteString(fmt.Sprintf("  Researched: %d niches, %d retained\n", s.NichesResearched, s.NichesRetained))
	b.WriteString(fmt.Sprintf("  Generated:  %d candidates\n", s.CandidatesGenerated))
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(approvedStyle.Render(fmt.Sprintf("Approved: %d", s.Approved)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  IP flagged:         %d\n", s.IPFlagged))
	b.WriteString(fmt.Sprintf("  Compliance flagged: %d\n", s.ComplianceFlagged))
	b.WriteString(fmt.Sprintf("  Quality rejected:   %d\n", s.QualityRejected))
	b.WriteString(fmt.Sprintf("  Policy / infra:     %d / %d\n", s.PolicyRejections, s.InfraFailures))

	if s.ApprovedPerHour > 0 {
		b.WriteString(fmt.Sprintf("  Throughput:         %.1f approved/hour\n", s.ApprovedPerHour))
	}

	if len(s.PerNiche) > 0 {
		b.WriteString("\n")
		names := make([]string, 0, len(s.PerNiche))
		for name := range s.PerNiche {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ns := s.PerNiche[name]
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %-28s %d gen / %d ok / %d rej",
				truncate(name, 28), ns.Generated, ns.Approved, ns.Rejected)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  [esc/enter]back"))

	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderKeywords() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("NEGATIVE KEYWORDS (%d)", len(m.keywords))))
	b.WriteString("\n")

	if len(m.keywords) == 0 {
		b.WriteString(dimStyle.Render("  No negative keywords learned yet"))
		return b.String()
	}

	// Flow the keywords into columns.
	colWidth := 24
	cols := (m.width - 6) / colWidth
	if cols < 1 {
		cols = 1
	}

	for i, kw := range m.keywords {
		if i%cols == 0 {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("  ")
		}
		b.WriteString(flaggedStyle.Render(fmt.Sprintf("%-*s", colWidth, truncate(kw, colWidth-1))))
	}

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
