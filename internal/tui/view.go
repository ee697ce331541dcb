package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tracemetrics/internal/analysis"
	"tracemetrics/internal/reporting"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (m ReportModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("Trace Metrics - %s", m.source))

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.active {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	panels := []string{infoStyle.Render(m.table.View())}
	if panel := m.panel(); panel != "" {
		panels = append(panels, infoStyle.Render(panel))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panels...)

	help := helpStyle.Render("tab/shift+tab: switch view  up/down: scroll  q: quit")
	view := lipgloss.JoinVertical(lipgloss.Left, title, tabBar, body) + "\n" + help
	if m.width > 0 {
		view = lipgloss.NewStyle().MaxWidth(m.width).Render(view)
	}
	return view
}

// panel returns the side summary for the active tab, if it has one.
func (m ReportModel) panel() string {
	r := m.report
	switch m.active {
	case TabThroughput:
		if err, ok := r.Errors[analysis.MetricThroughput]; ok {
			return "Throughput failed:\n" + err.Error()
		}
		return fmt.Sprintf("Window: %s\nPeak: %s", r.Window, reporting.FormatBps(r.PeakThroughput()))
	case TabProtocols:
		if len(r.Protocols) == 0 {
			return "No IP packets in trace."
		}
		return fmt.Sprintf("IP packets: %d", r.Protocols.Total())
	case TabTCP:
		return latencyPanel("TCP handshake RTT", analysis.Summarize(r.HandshakeRTTs()))
	case TabDNS:
		return latencyPanel("DNS resolution time", analysis.Summarize(r.DNSLatencies()))
	}
	return ""
}

func latencyPanel(name string, s analysis.LatencySummary) string {
	if s.Count == 0 {
		return name + "\nNo samples."
	}
	lines := []string{
		name,
		fmt.Sprintf("Samples: %d", s.Count),
		fmt.Sprintf("Min: %s", s.Min),
		fmt.Sprintf("Avg: %s", s.Avg),
		fmt.Sprintf("P95: %s", s.P95),
		fmt.Sprintf("Max: %s", s.Max),
	}
	return strings.Join(lines, "\n")
}
